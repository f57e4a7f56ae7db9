package storage

import (
	"encoding/json"
	"path"

	"github.com/brendanbecker/ce101/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
)

// ObjectName returns the slash separated name a report is stored under:
// [prefix/]<namespace>/<deployment>/<id>.json
func ObjectName(prefix string, report *model.PRRReport) string {
	return path.Join(prefix, report.Namespace, report.Deployment, string(report.ID)+".json")
}

func encode(report *model.PRRReport) ([]byte, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to encode PRR report", goerr.V("report_id", report.ID))
	}
	return append(data, '\n'), nil
}
