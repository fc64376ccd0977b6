package server

import (
	"dm-lab/auth"
	"dm-lab/errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var wireNames sync.Once

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type createRequestBody struct {
	ReceiverID string `json:"receiverId" binding:"required"`
	Content    string `json:"content" binding:"required"`
}

type respondBody struct {
	Action string `json:"action" binding:"required"`
}

type sendMessageBody struct {
	Content string `json:"content" binding:"required"`
}

type searchQuery struct {
	Query string `form:"q"`
	Limit int    `form:"limit" binding:"omitempty,min=1,max=100"`
}

// writeError answers the classified status with the error envelope. Internal details are logged, never sent.
func (r *Router) writeError(c *gin.Context, err error) {
	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError && errors.KindOf(err) == errors.KindInternal {
		r.log.Error("Request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
	}
	c.AbortWithStatusJSON(status, errorEnvelope{Error: errorBody{
		Code:    errors.CodeOf(err),
		Message: errors.Message(err),
	}})
}

// bindingError turns a gin binding failure into a validation error naming the offending fields.
func bindingError(err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		fields := make([]string, 0, len(validationErrors))
		for _, fe := range validationErrors {
			fields = append(fields, fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag()))
		}
		return errors.Validation(strings.Join(fields, ", "))
	}
	return errors.Validation("malformed request")
}

// useWireNames makes validation errors name fields the way clients send them.
func useWireNames() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(field.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return field.Name
	})
}

func identity(c *gin.Context) auth.Identity {
	id, _ := auth.IdentityFrom(c.Request.Context())
	return id
}
