package helper

import (
	"strconv"

	"github.com/jeeprep/jee-prep-api/internal/domain/entity"
)

// QuestionOption is an answer choice as shown to a candidate. The correct
// flag is never included.
type QuestionOption struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
}

// ConvertOptions converts stored options to their public form. IDs are the
// 0-based option positions; answers are still submitted as option text.
func ConvertOptions(options entity.OptionList) []QuestionOption {
	converted := make([]QuestionOption, len(options))
	for i, opt := range options {
		converted[i] = QuestionOption{ID: i, Text: opt.Text}
	}
	return converted
}

// UserIDString formats a user id the way websocket clients are keyed.
func UserIDString(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
