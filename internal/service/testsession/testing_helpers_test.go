package testsession

import "github.com/jeeprep/jee-prep-api/internal/domain/entity"

func singleChoice(id uint, correct string, wrong ...string) entity.Question {
	opts := entity.OptionList{{Text: correct, IsCorrect: true}}
	for _, w := range wrong {
		opts = append(opts, entity.Option{Text: w})
	}
	return entity.Question{ID: id, Type: entity.QuestionTypeSingleChoice, Options: opts}
}

func multipleChoice(id uint, correct []string, wrong ...string) entity.Question {
	var opts entity.OptionList
	for _, c := range correct {
		opts = append(opts, entity.Option{Text: c, IsCorrect: true})
	}
	for _, w := range wrong {
		opts = append(opts, entity.Option{Text: w})
	}
	return entity.Question{ID: id, Type: entity.QuestionTypeMultipleChoice, Options: opts}
}

func numerical(id uint, value string) entity.Question {
	return entity.Question{
		ID:      id,
		Type:    entity.QuestionTypeNumerical,
		Options: entity.OptionList{{Text: value, IsCorrect: true}},
	}
}
