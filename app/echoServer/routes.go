package echoServer

import (
	"github.com/kerpat/serverdogovor/app/echoServer/controller/admin"
	"github.com/kerpat/serverdogovor/app/echoServer/controller/user"

	"github.com/labstack/echo/v4"
)

type C struct {
	User  *user.Controller
	Admin *admin.Controller
}

func Register(e *echo.Echo, c C) {
	api := e.Group("/api")

	// Single-endpoint action dispatch: the body's "action" field selects the
	// operation, resolved through each controller's typed table.
	api.POST("/user", c.User.Handle)
	api.POST("/admin", c.Admin.Handle)
}
