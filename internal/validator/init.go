package validator

import (
	"ctchen222/BigTicTacToe/internal/game"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	// "mark" accepts X or O; an empty cell is not a player.
	_ = validate.RegisterValidation("mark", func(fl validator.FieldLevel) bool {
		m := game.PlayerMark(fl.Field().String())
		return m == game.PlayerX || m == game.PlayerO
	})
}

func GetValidator() *validator.Validate {
	return validate
}
