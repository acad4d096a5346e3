package metric

import (
	"log/slog"
	"time"

	"campushub/src-server/utils"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func databaseEmptyRead(as *utils.AppState, tickerInterval *time.Duration) {
	databaseEmptyRead := promauto.NewGauge(prometheus.GaugeOpts{
		Name: "campushub_database_empty_read_microsec",
		Help: "The latency of an empty database read in microseconds",
	})
	good := true
	if err := prometheus.Register(databaseEmptyRead); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
			slog.Error("can't register campushub_database_empty_read_microsec metric", "error", err)
			good = false
		}
	}
	if good {
		slog.Debug("campushub_database_empty_read_microsec metric registered")
		databaseEmptyRead.Set(0)
	}
	go func() {
		gracefulShutdownCh := as.CreateGracefulShutdownChan()
		ticker := time.NewTicker(*tickerInterval)
		defer ticker.Stop()
		for {
			select {
			case <-*gracefulShutdownCh:
				switch prometheus.Unregister(databaseEmptyRead) {
				case true:
					slog.Debug("campushub_database_empty_read_microsec metric unregistered")
				case false:
					slog.Warn("campushub_database_empty_read_microsec metric not registered")
				}
				return
			case <-ticker.C:
				latency, err := database(as)
				if err != nil {
					slog.Error("can't get database latency", "error", err)
					continue
				}
				databaseEmptyRead.Set(float64(latency.Microseconds()))
			}
		}
	}()
}

func databaseRead(as *utils.AppState, clearTickerInterval *time.Duration) {
	databaseRead := promauto.NewGauge(prometheus.GaugeOpts{
		Name: "campushub_database_read_microsec",
		Help: "The latency of a database read in microseconds",
	})
	good := true
	if err := prometheus.Register(databaseRead); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
			slog.Error("can't register campushub_database_read_microsec metric", "error", err)
			good = false
		}
	}
	if good {
		slog.Debug("campushub_database_read_microsec metric registered")
		databaseRead.Set(0)
	}
	go func() {
		gracefulShutdownCh := as.CreateGracefulShutdownChan()
		clearTicker := time.NewTicker(*clearTickerInterval)
		defer clearTicker.Stop()
		for {
			select {
			case <-*gracefulShutdownCh:
				switch prometheus.Unregister(databaseRead) {
				case true:
					slog.Debug("campushub_database_read_microsec metric unregistered")
				case false:
					slog.Warn("campushub_database_read_microsec metric not registered")
				}
				return
			case latency := <-as.MetricChans.DatabaseRead:
				databaseRead.Set(latency)
				clearTicker.Reset(*clearTickerInterval)
			case <-clearTicker.C:
				databaseRead.Set(0)
			}
		}
	}()
}

func databaseWrite(as *utils.AppState, clearTickerInterval *time.Duration) {
	databaseWrite := promauto.NewGauge(prometheus.GaugeOpts{
		Name: "campushub_database_write_microsec",
		Help: "The latency of a database write in microseconds",
	})
	good := true
	if err := prometheus.Register(databaseWrite); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
			slog.Error("can't register campushub_database_write_microsec metric", "error", err)
			good = false
		}
	}
	if good {
		slog.Debug("campushub_database_write_microsec metric registered")
		databaseWrite.Set(0)
	}
	go func() {
		gracefulShutdownCh := as.CreateGracefulShutdownChan()
		clearTicker := time.NewTicker(*clearTickerInterval)
		defer clearTicker.Stop()
		for {
			select {
			case <-*gracefulShutdownCh:
				switch prometheus.Unregister(databaseWrite) {
				case true:
					slog.Debug("campushub_database_write_microsec metric unregistered")
				case false:
					slog.Warn("campushub_database_write_microsec metric not registered")
				}
				return
			case latency := <-as.MetricChans.DatabaseWrite:
				databaseWrite.Set(latency)
				clearTicker.Reset(*clearTickerInterval)
			case <-clearTicker.C:
				databaseWrite.Set(0)
			}
		}
	}()
}

func authMiddlewareRead(as *utils.AppState, clearTickerInterval *time.Duration) {
	authMiddlewareRead := promauto.NewGauge(prometheus.GaugeOpts{
		Name: "campushub_auth_middleware_read_microsec",
		Help: "The latency of the auth middleware's session lookup in microseconds",
	})
	good := true
	if err := prometheus.Register(authMiddlewareRead); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
			slog.Error("can't register campushub_auth_middleware_read_microsec metric", "error", err)
			good = false
		}
	}
	if good {
		slog.Debug("campushub_auth_middleware_read_microsec metric registered")
		authMiddlewareRead.Set(0)
	}
	go func() {
		gracefulShutdownCh := as.CreateGracefulShutdownChan()
		clearTicker := time.NewTicker(*clearTickerInterval)
		defer clearTicker.Stop()
		for {
			select {
			case <-*gracefulShutdownCh:
				switch prometheus.Unregister(authMiddlewareRead) {
				case true:
					slog.Debug("campushub_auth_middleware_read_microsec metric unregistered")
				case false:
					slog.Warn("campushub_auth_middleware_read_microsec metric not registered")
				}
				return
			case latency := <-as.MetricChans.DatabaseReadForAuthMiddleware:
				authMiddlewareRead.Set(latency)
				clearTicker.Reset(*clearTickerInterval)
			case <-clearTicker.C:
				authMiddlewareRead.Set(0)
			}
		}
	}()
}

func certificatesIssued(as *utils.AppState) {
	certificatesIssued := promauto.NewCounter(prometheus.CounterOpts{
		Name: "campushub_certificates_issued_total",
		Help: "The number of certificates issued since startup",
	})
	good := true
	if err := prometheus.Register(certificatesIssued); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
			slog.Error("can't register campushub_certificates_issued_total metric", "error", err)
			good = false
		}
	}
	if good {
		slog.Debug("campushub_certificates_issued_total metric registered")
	}
	go func() {
		gracefulShutdownCh := as.CreateGracefulShutdownChan()
		for {
			select {
			case <-*gracefulShutdownCh:
				switch prometheus.Unregister(certificatesIssued) {
				case true:
					slog.Debug("campushub_certificates_issued_total metric unregistered")
				case false:
					slog.Warn("campushub_certificates_issued_total metric not registered")
				}
				return
			case <-as.MetricChans.CertificateIssued:
				certificatesIssued.Inc()
			}
		}
	}()
}

func attendanceCheckins(as *utils.AppState) {
	attendanceCheckins := promauto.NewCounter(prometheus.CounterOpts{
		Name: "campushub_attendance_checkins_total",
		Help: "The number of QR attendance check-ins since startup",
	})
	good := true
	if err := prometheus.Register(attendanceCheckins); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
			slog.Error("can't register campushub_attendance_checkins_total metric", "error", err)
			good = false
		}
	}
	if good {
		slog.Debug("campushub_attendance_checkins_total metric registered")
	}
	go func() {
		gracefulShutdownCh := as.CreateGracefulShutdownChan()
		for {
			select {
			case <-*gracefulShutdownCh:
				switch prometheus.Unregister(attendanceCheckins) {
				case true:
					slog.Debug("campushub_attendance_checkins_total metric unregistered")
				case false:
					slog.Warn("campushub_attendance_checkins_total metric not registered")
				}
				return
			case <-as.MetricChans.AttendanceCheckin:
				attendanceCheckins.Inc()
			}
		}
	}()
}

func Init(as *utils.AppState) {
	tickerInterval := as.Config.GetMetricCollectionInterval()
	clearTickerInterval := as.Config.GetMetricCollectionInterval() * 2

	databaseEmptyRead(as, &tickerInterval)
	databaseRead(as, &clearTickerInterval)
	databaseWrite(as, &clearTickerInterval)
	authMiddlewareRead(as, &clearTickerInterval)
	certificatesIssued(as)
	attendanceCheckins(as)
}
