package handler

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"blood-donation-backend/internal/middleware"
	"blood-donation-backend/internal/models"
	"blood-donation-backend/internal/service"
	"blood-donation-backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// RegisterValidators adds the custom binding tags used by request structs.
func RegisterValidators() {
	registerOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			v.RegisterTagNameFunc(func(fld reflect.StructField) string {
				name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
				if name == "-" || name == "" {
					return fld.Name
				}
				return name
			})
			_ = v.RegisterValidation("bloodtype", func(fl validator.FieldLevel) bool {
				return models.ValidBloodType(fl.Field().String())
			})
		}
	})
}

// actorFrom reads the caller set by the auth middleware.
func actorFrom(c *gin.Context) service.Actor {
	return service.Actor{
		UserID: c.GetUint(middleware.ContextUserID),
		Role:   c.GetString(middleware.ContextRole),
	}
}

// optionalActor is nil for anonymous requests.
func optionalActor(c *gin.Context) *service.Actor {
	if _, ok := c.Get(middleware.ContextUserID); !ok {
		return nil
	}
	a := actorFrom(c)
	return &a
}

// parseID reads a numeric path parameter, answering 400 when it is not one.
func parseID(c *gin.Context, name, label string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid "+label+" ID")
		return 0, false
	}
	return uint(id), true
}

// queryUint parses an optional numeric query parameter.
func queryUint(c *gin.Context, name string) (*uint, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return nil, utils.BadRequest(name + " must be a positive integer")
	}
	id := uint(v)
	return &id, nil
}

func queryBool(c *gin.Context, name string) (*bool, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, utils.BadRequest(name + " must be true or false")
	}
	return &v, nil
}

// parseDateParam reads an optional YYYY-MM-DD query parameter.
func parseDateParam(c *gin.Context, name string) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, utils.BadRequest(name + " must use the YYYY-MM-DD format")
	}
	return &t, nil
}

// bindJSON decodes the body into dst and answers 400 with a readable message on failure.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, bindingMessage(err))
		return false
	}
	return true
}

func bindingMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		field := fe.Field()
		switch fe.Tag() {
		case "required":
			return field + " is required"
		case "email":
			return field + " must be a valid email address"
		case "oneof":
			return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
		case "min":
			return fmt.Sprintf("%s must be at least %s", field, fe.Param())
		case "max":
			return fmt.Sprintf("%s must be at most %s", field, fe.Param())
		case "bloodtype":
			return field + " must be one of A, B, AB, O"
		case "latitude", "longitude":
			return field + " is out of range"
		}
		return fmt.Sprintf("%s is invalid (%s)", field, fe.Tag())
	}
	return "Invalid request body"
}

func page(c *gin.Context) utils.PageParams {
	return utils.ParsePage(c, utils.DefaultPageOpts)
}
