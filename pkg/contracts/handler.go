package contracts

import (
	"context"

	"github.com/julienschmidt/httprouter"
)

type Handler interface {
	RegisterRoutes(*httprouter.Router)
}

// Pinger is a backend the readiness probe can check.
type Pinger interface {
	Name() string
	Ping(ctx context.Context) error
}
