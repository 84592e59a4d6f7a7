package observability

import (
	"context"
	"database/sql"
	"time"

	"github.com/robfig/cron/v3"
)

// statsTables are the tables whose active row counts are exported as gauges.
var statsTables = []string{
	"distritos",
	"autoridades",
	"materias",
	"materias_tipos_juicios",
	"sentencias",
	"edictos",
	"listas_de_acuerdos",
	"usuarios",
	"roles",
}

// StatsCollector periodically refreshes table row gauges and DB pool gauges.
type StatsCollector struct {
	db      *sql.DB
	metrics *Metrics
	logger  *Logger
	cron    *cron.Cron
}

// NewStatsCollector creates a stats collector bound to the given database
func NewStatsCollector(db *sql.DB, metrics *Metrics, logger *Logger) *StatsCollector {
	return &StatsCollector{
		db:      db,
		metrics: metrics,
		logger:  logger,
		cron:    cron.New(),
	}
}

// Start schedules periodic collection. The schedule uses cron syntax,
// e.g. "@every 5m".
func (s *StatsCollector) Start(schedule string) error {
	_, err := s.cron.AddFunc(schedule, s.Collect)
	if err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// Stop halts the scheduler and waits for a running collection to finish
func (s *StatsCollector) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// Collect refreshes all gauges once
func (s *StatsCollector) Collect() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	stats := s.db.Stats()
	s.metrics.DBConnectionsActive.Set(float64(stats.InUse))
	s.metrics.DBConnectionsIdle.Set(float64(stats.Idle))

	for _, table := range statsTables {
		count, err := s.countActiveRows(ctx, table)
		if err != nil {
			s.logger.WithError(err).WithField("table", table).Warn("Failed to count table rows")
			continue
		}
		s.metrics.TableRowsTotal.WithLabelValues(table).Set(float64(count))
	}
}

func (s *StatsCollector) countActiveRows(ctx context.Context, table string) (int64, error) {
	// table names come from the fixed statsTables list, never from input
	var count int64
	query := "SELECT COUNT(*) FROM " + table + " WHERE estatus = 'A'"
	err := s.db.QueryRowContext(ctx, query).Scan(&count)
	return count, err
}
