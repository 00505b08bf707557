package contracts

import "github.com/julienschmidt/httprouter"

// Handler is implemented by every domain handler so the shared application
// wiring can register routes without knowing the domain.
type Handler interface {
	RegisterRoutes(router *httprouter.Router)
}
