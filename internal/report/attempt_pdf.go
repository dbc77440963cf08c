// Package report renders downloadable documents for stored attempts.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/jeeprep/jee-prep-api/internal/domain/entity"
)

const maxPromptRunes = 70

// RenderAttemptPDF writes a one-document summary of attempt to w: the totals
// followed by a row per answered question. Submissions are expected to have
// their Question preloaded; rows without it show only the question id.
func RenderAttemptPDF(w io.Writer, attempt *entity.TestAttempt, userName string) error {
	if attempt == nil {
		return fmt.Errorf("render attempt pdf: attempt is nil")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Test report "+attempt.AttemptID, false)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, tr("Test report"))
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 11)
	lines := []string{
		fmt.Sprintf("Candidate: %s", userName),
		fmt.Sprintf("Attempt: %s", attempt.AttemptID),
		fmt.Sprintf("Submitted: %s", attempt.SubmittedAt.Format("2006-01-02 15:04 MST")),
		fmt.Sprintf("Subjects: %s", strings.Join(attempt.Subjects, ", ")),
	}
	if len(attempt.Topics) > 0 {
		lines = append(lines, fmt.Sprintf("Topics: %s", strings.Join(attempt.Topics, ", ")))
	}
	if attempt.Difficulty != "" {
		lines = append(lines, fmt.Sprintf("Difficulty: %s", attempt.Difficulty))
	}
	lines = append(lines,
		fmt.Sprintf("Score: %.2f%%  (%d of %d correct, %d answered)",
			attempt.Score, attempt.CorrectAnswers, attempt.TotalQuestions, attempt.AnsweredQuestions),
		fmt.Sprintf("Time spent: %dm %02ds of %d minutes", attempt.TimeSpent/60, attempt.TimeSpent%60, attempt.Duration),
	)
	for _, l := range lines {
		pdf.Cell(0, 7, tr(l))
		pdf.Ln(7)
	}
	pdf.Ln(5)

	if len(attempt.Submissions) > 0 {
		widths := []float64{12, 108, 50, 20}
		pdf.SetFont("Arial", "B", 10)
		pdf.SetFillColor(230, 230, 230)
		for i, h := range []string{"#", "Question", "Answer", "Result"} {
			pdf.CellFormat(widths[i], 8, h, "1", 0, "L", true, 0, "")
		}
		pdf.Ln(-1)

		pdf.SetFont("Arial", "", 9)
		for i, s := range attempt.Submissions {
			result := "Wrong"
			if s.IsCorrect {
				result = "Correct"
			}
			cells := []string{
				fmt.Sprintf("%d", i+1),
				questionLabel(s),
				truncate(strings.ReplaceAll(s.Answer, "\n", "; "), 30),
				result,
			}
			for j, text := range cells {
				pdf.CellFormat(widths[j], 7, tr(text), "1", 0, "L", false, 0, "")
			}
			pdf.Ln(-1)
		}
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render attempt pdf: %w", err)
	}
	return pdf.Output(w)
}

func questionLabel(s entity.Submission) string {
	if s.Question == nil {
		return fmt.Sprintf("Question %d", s.QuestionID)
	}
	label := s.Question.Title
	if label == "" {
		label = s.Question.Description
	}
	return truncate(label, maxPromptRunes)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
