package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// BeforeSave ignores tx, nil is enough.
var nilTx *gorm.DB

func TestUser_BeforeSave_HashesPassword(t *testing.T) {
	// Arrange
	plain := "s3cret-pass"
	user := &User{Name: "Asha", Email: "asha@example.com", Password: plain}

	// Act
	err := user.BeforeSave(nilTx)

	// Assert
	require.NoError(t, err)
	assert.NotEqual(t, plain, user.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(plain)))
}

func TestUser_BeforeSave_SkipsAlreadyHashedPassword(t *testing.T) {
	// Arrange
	hashed, err := bcrypt.GenerateFromPassword([]byte("already"), bcrypt.DefaultCost)
	require.NoError(t, err)
	user := &User{Email: "asha@example.com", Password: string(hashed)}

	// Act
	err = user.BeforeSave(nilTx)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, string(hashed), user.Password, "a bcrypt hash must not be hashed twice")
}

func TestUser_BeforeSave_SkipsEmptyPassword(t *testing.T) {
	user := &User{Email: "asha@example.com"}

	require.NoError(t, user.BeforeSave(nilTx))
	assert.Empty(t, user.Password)
}

func TestUser_CheckPassword(t *testing.T) {
	// Arrange
	user := &User{Email: "asha@example.com", Password: "correct-horse"}
	require.NoError(t, user.BeforeSave(nilTx))

	// Act & Assert
	assert.True(t, user.CheckPassword("correct-horse"))
	assert.False(t, user.CheckPassword("wrong"))
	assert.False(t, user.CheckPassword(""))
}

func TestUser_IsAdmin(t *testing.T) {
	assert.True(t, (&User{Role: "admin"}).IsAdmin())
	assert.False(t, (&User{Role: "user"}).IsAdmin())
}
