package service

import (
	"fmt"

	apperrors "github.com/jeeprep/jee-prep-api/internal/pkg/errors"
)

// Service level errors. All of them wrap an apperrors sentinel.
var (
	ErrInvalidCredentials = fmt.Errorf("%w: invalid email or password", apperrors.ErrUnauthorized)
	ErrMissingTestID      = fmt.Errorf("%w: testId is required", apperrors.ErrValidation)
	ErrTestNotActive      = fmt.Errorf("%w: no active test with this id", apperrors.ErrNotFound)
)
