package api

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"board-relay/domain"
	"board-relay/relay"
)

// SnapshotReader serves cached per-user task lists. The miss case falls
// back to the relay's in-memory store, which stays authoritative.
type SnapshotReader interface {
	LoadTasks(ctx context.Context, userID string) ([]domain.Task, bool, error)
}

type tasksResponse struct {
	Tasks []domain.Task `json:"tasks"`
}

// Register wires up all routes on the provided Echo instance.
func Register(e *echo.Echo, rl *relay.Relay, auth Authenticator, snapshots SnapshotReader, allowedOrigins []string, logger *log.Logger) {
	upgrader := newUpgrader(allowedOrigins)
	e.GET("/ws", relayChannel(rl, upgrader, logger))
	e.GET("/api/tasks", getTasks(rl, auth, snapshots, logger))
	e.GET("/healthz", healthz())
}

func healthz() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}
}

// getTasks returns the caller's full task list over plain HTTP, for
// clients that fetch before opening the event channel. Requires a valid
// bearer token; tries the snapshot cache first.
func getTasks(rl *relay.Relay, auth Authenticator, snapshots SnapshotReader, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		if auth == nil {
			return c.String(http.StatusUnauthorized, "authentication not configured")
		}
		userID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		if snapshots != nil {
			tasks, ok, err := snapshots.LoadTasks(c.Request().Context(), userID)
			if err != nil {
				logger.WithField("user", userID).Warnf("snapshot load: %v", err)
			} else if ok {
				return c.JSON(http.StatusOK, tasksResponse{Tasks: tasks})
			}
		}
		return c.JSON(http.StatusOK, tasksResponse{Tasks: rl.Tasks(userID)})
	}
}
