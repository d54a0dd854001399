package printer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError(t *testing.T) {
	t.Run("returns the title as the error", func(t *testing.T) {
		err := Error("config not found", "No drey.yml in the current directory.", nil)
		assert.EqualError(t, err, "config not found")
	})

	t.Run("with suggestions", func(t *testing.T) {
		err := Error("store unavailable", "Could not open the batch store.",
			[]string{"Check the store directory", "Run 'drey init' first"})
		assert.EqualError(t, err, "store unavailable")
	})
}
