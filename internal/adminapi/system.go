package adminapi

import (
	"fmt"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/process"
	"github.com/talkincode/storefront/internal/domain"
	"github.com/talkincode/storefront/internal/webserver"
	"gorm.io/gorm"
)

type TableInfo struct {
	Name     string `json:"name"`
	RowCount int64  `json:"row_count"`
}

type ProcessInfo struct {
	Pid           int32   `json:"pid"`
	Goroutines    int     `json:"goroutines"`
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryRSS     string  `json:"memory_rss"`
	HostMemory    string  `json:"host_memory"`
	HostMemoryUse float64 `json:"host_memory_used_percent"`
}

// SystemInfo database, process and outbox health for the admin console
type SystemInfo struct {
	DatabaseType    string           `json:"database_type"`
	DatabaseVersion string           `json:"database_version"`
	DatabaseSize    string           `json:"database_size"`
	Encoding        string           `json:"encoding"`
	ServerTime      string           `json:"server_time"`
	Tables          []TableInfo      `json:"tables"`
	Notifications   map[string]int64 `json:"notifications"`
	Process         ProcessInfo      `json:"process"`
}

func registerSystemRoutes() {
	webserver.AdminGET("/admin/system/info", getSystemInfo)
}

func formatSize(sizeBytes int64) string {
	switch {
	case sizeBytes < 1024:
		return fmt.Sprintf("%d B", sizeBytes)
	case sizeBytes < 1024*1024:
		return fmt.Sprintf("%.2f KB", float64(sizeBytes)/1024)
	case sizeBytes < 1024*1024*1024:
		return fmt.Sprintf("%.2f MB", float64(sizeBytes)/(1024*1024))
	}
	return fmt.Sprintf("%.2f GB", float64(sizeBytes)/(1024*1024*1024))
}

func databaseInfo(db *gorm.DB, info *SystemInfo) {
	info.DatabaseType = db.Dialector.Name()
	switch info.DatabaseType {
	case "postgres":
		db.Raw("SELECT version()").Scan(&info.DatabaseVersion)
		db.Raw("SELECT pg_size_pretty(pg_database_size(current_database()))").Scan(&info.DatabaseSize)
		db.Raw("SELECT pg_encoding_to_char(encoding) FROM pg_database WHERE datname = current_database()").Scan(&info.Encoding)
	case "sqlite":
		var version string
		db.Raw("SELECT sqlite_version()").Scan(&version)
		info.DatabaseVersion = "SQLite " + version
		var pageCount, pageSize int64
		db.Raw("PRAGMA page_count").Scan(&pageCount)
		db.Raw("PRAGMA page_size").Scan(&pageSize)
		info.DatabaseSize = formatSize(pageCount * pageSize)
		db.Raw("PRAGMA encoding").Scan(&info.Encoding)
	}
}

func processInfo() ProcessInfo {
	info := ProcessInfo{Pid: int32(os.Getpid()), Goroutines: runtime.NumGoroutine()} //nolint:gosec // pid fits in int32
	if p, err := process.NewProcess(info.Pid); err == nil {
		if v, err := p.CPUPercent(); err == nil {
			info.CPUPercent = v
		}
		if m, err := p.MemoryInfo(); err == nil {
			info.MemoryRSS = formatSize(int64(m.RSS)) //nolint:gosec // rss fits in int64
		}
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		info.HostMemory = formatSize(int64(vm.Total)) //nolint:gosec // total fits in int64
		info.HostMemoryUse = vm.UsedPercent
	}
	return info
}

func getSystemInfo(c echo.Context) error {
	db := GetDB(c)
	info := SystemInfo{
		ServerTime:    time.Now().Format("2006-01-02 15:04:05"),
		Notifications: map[string]int64{},
		Process:       processInfo(),
	}
	databaseInfo(db, &info)

	for _, model := range domain.Tables {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(model); err != nil {
			return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to inspect tables", err.Error())
		}
		var count int64
		if err := db.Model(model).Count(&count).Error; err != nil {
			return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to count rows", err.Error())
		}
		info.Tables = append(info.Tables, TableInfo{Name: stmt.Schema.Table, RowCount: count})
	}

	var rows []struct {
		Status string
		Total  int64
	}
	err := db.Model(&domain.NotifyLog{}).Select("status, COUNT(*) AS total").Group("status").Scan(&rows).Error
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to count notifications", err.Error())
	}
	for _, r := range rows {
		info.Notifications[r.Status] = r.Total
	}
	return ok(c, info)
}
