package validation

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"
)

var errValidationFailed = errors.New("validation failed")

// BindAndValidate binds the JSON body into `out` and runs validation.
// On failure it writes the 400 response itself and returns a non-nil
// error so the handler can short-circuit.
func BindAndValidate(c *gin.Context, out interface{}, v *validatorv10.Validate) error {
	if err := c.ShouldBindJSON(out); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{
				"message": "Invalid request body: " + err.Error(),
				"status":  http.StatusBadRequest,
			},
		})
		return err
	}

	if fieldErrs := Check(v, out); len(fieldErrs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{
				"message": "Validation failed",
				"status":  http.StatusBadRequest,
			},
			"errors": fieldErrs,
		})
		return errValidationFailed
	}
	return nil
}
