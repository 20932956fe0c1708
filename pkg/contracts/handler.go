package contracts

import "github.com/julienschmidt/httprouter"

type Handler interface {
	RegisterRoutes(*httprouter.Router)
}

// IdempotentHandler lists the POST paths that honour an Idempotency-Key.
// Keys sent to any other path are ignored.
type IdempotentHandler interface {
	IdempotentPaths() []string
}
