package mcpsrv

import (
	"github.com/usetrace/harmcp/internal/agent"
	"github.com/usetrace/harmcp/internal/config"
	"github.com/usetrace/harmcp/internal/query"
	"github.com/usetrace/harmcp/internal/search"
	"github.com/usetrace/harmcp/internal/store"
)

// Deps contains all dependencies available to custom tools.
// This gives custom tools access to the same infrastructure as builtin tools.
type Deps struct {
	Store  *store.Store
	Search *search.Engine
	Query  *query.Engine
	Agent  *agent.Service
	Config *config.Config
}
