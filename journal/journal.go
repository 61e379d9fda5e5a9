// Package journal persists one record per capture run to a MySQL
// database, for fleets of capture boxes that report centrally. Entirely
// optional; a failed journal write never affects the capture itself.
package journal

import (
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

type Capture struct {
	gorm.Model

	Path      string
	Width     int
	Height    int
	Framerate int

	// Requested vs actually submitted frames.
	Target    int
	Submitted int

	Packets int
	Bytes   int64
	Success bool
	Elapsed time.Duration
}

type Journal struct {
	db *gorm.DB
}

func Open(dsn string) (*Journal, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&Capture{}); err != nil {
		return nil, err
	}
	return &Journal{db: db}, nil
}

// Record writes one capture row. Errors are logged, not returned; the
// capture result is already final by the time this runs.
func (j *Journal) Record(c *Capture) {
	if err := j.db.Create(c).Error; err != nil {
		log.Errorf("Failed to journal capture: %v", err)
		return
	}
	log.Infof("Capture journaled with id %d", c.ID)
}
