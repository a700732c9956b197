package adminapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/talkincode/storefront/internal/app"
	"github.com/talkincode/storefront/internal/webserver"
	"go.uber.org/zap"
)

func registerJobRoutes() {
	webserver.AdminGET("/admin/jobs", listJobs)
	webserver.AdminPOST("/admin/jobs/:name/run", runJob)
}

func listJobs(c echo.Context) error {
	return ok(c, GetAppContext(c).Jobs())
}

// runJob triggers a scheduled job immediately and waits for it
func runJob(c echo.Context) error {
	name := c.Param("name")
	start := time.Now()
	if err := GetAppContext(c).RunJobNow(name); err != nil {
		if errors.Is(err, app.ErrJobRunning) {
			return fail(c, http.StatusConflict, "JOB_RUNNING", "Job is already running", map[string]string{"job": name})
		}
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Job not found", err.Error())
	}
	zap.L().Info("job triggered",
		zap.String("job", name),
		zap.Duration("elapsed", time.Since(start)),
		zap.String("namespace", "jobs"))
	return ok(c, map[string]interface{}{"name": name, "elapsed_ms": time.Since(start).Milliseconds()})
}
