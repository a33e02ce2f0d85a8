package notify

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"gerritwatch/internal/models"
	"gerritwatch/internal/providers"
	"gerritwatch/internal/structures"
)

// AuditNotifier appends one tab-separated row per cycle:
// timestamp, addCount, addList, dropCount, dropList, mergeCount, mergeList.
// Every row goes to the all-cycles file; rows with changes also go to the
// changes file. A cycle without enough history to compare is written to the
// all-cycles file with "-" in each count column.
type AuditNotifier struct {
	mu          sync.Mutex
	allFile     string
	changesFile string
	logger      providers.Logger
}

const insufficientMark = "-"

func NewAuditNotifier(conf *structures.Config, logger providers.Logger) *AuditNotifier {
	return &AuditNotifier{
		allFile:     resolve(conf.DataDir, conf.Notify.Audit.AllFile),
		changesFile: resolve(conf.DataDir, conf.Notify.Audit.ChangesFile),
		logger:      logger,
	}
}

func resolve(dir, name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(dir, name)
}

func (a *AuditNotifier) Notify(_ context.Context, n *models.Notification) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	ts := strconv.FormatInt(n.Timestamp, 10)
	if n.Delta.IsInsufficient() {
		return appendRow(a.allFile, []string{ts, insufficientMark, "", insufficientMark, "", insufficientMark, ""})
	}

	d := n.Delta
	row := []string{
		ts,
		strconv.Itoa(len(d.Add)), IDList(d.Add),
		strconv.Itoa(len(d.Drop)), IDList(d.Drop),
		strconv.Itoa(len(d.Merge)), IDList(d.Merge),
	}

	if err := appendRow(a.allFile, row); err != nil {
		return err
	}
	if d.Count > 0 {
		if err := appendRow(a.changesFile, row); err != nil {
			return err
		}
	}
	a.logger.Debugf(providers.TypeCycle, "[%s] audit row written", n.CycleID)
	return nil
}

func appendRow(path string, row []string) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return models.MarkPersistence(err, "create audit dir for %s", path)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return models.MarkPersistence(err, "open audit file %s", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.Comma = '\t'
	if err := w.Write(row); err != nil {
		return models.MarkPersistence(err, "write audit file %s", path)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return models.MarkPersistence(err, "write audit file %s", path)
	}
	return nil
}
