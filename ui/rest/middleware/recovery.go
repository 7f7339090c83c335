package middleware

import (
	"errors"
	"fmt"

	pkgError "github.com/AzielCF/az-engage/pkg/error"
	"github.com/AzielCF/az-engage/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

func Recovery() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		defer func() {
			err := recover()
			if err != nil {
				var res utils.ResponseData
				res.Status = 500
				res.Code = "INTERNAL_SERVER_ERROR"
				res.Message = fmt.Sprintf("%v", err)

				var known pkgError.GenericError
				if e, ok := err.(error); ok && errors.As(e, &known) {
					res.Status = known.StatusCode()
					res.Code = known.ErrCode()
					res.Message = known.Error()
				}

				if res.Status >= 500 {
					logrus.Errorf("[REST] Panic recovered on %s %s: %v", ctx.Method(), ctx.Path(), err)
				} else {
					logrus.Debugf("[REST] %s %s -> %d %s", ctx.Method(), ctx.Path(), res.Status, res.Message)
				}

				_ = ctx.Status(res.Status).JSON(res)
			}
		}()

		return ctx.Next()
	}
}
