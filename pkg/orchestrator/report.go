package orchestrator

import (
	"strings"

	"fedora-updater/pkg/model"

	"github.com/hashicorp/go-multierror"
)

// Process exit statuses of an update run.
const (
	ExitOK             = 0
	ExitFailed         = 1
	ExitPartialFailure = 2
)

// Report holds one result per configured backend, in run order.
type Report struct {
	Results []model.Result
}

func (r Report) ran() []model.Result {
	var ran []model.Result
	for _, res := range r.Results {
		if res.Ran() {
			ran = append(ran, res)
		}
	}
	return ran
}

func (r Report) failed() []model.Result {
	var failed []model.Result
	for _, res := range r.Results {
		if res.Failed() {
			failed = append(failed, res)
		}
	}
	return failed
}

// ExitCode is 0 when no backend that ran failed, 2 when some but not all
// failed, and 1 when every backend that ran failed.
func (r Report) ExitCode() int {
	failed := len(r.failed())
	switch {
	case failed == 0:
		return ExitOK
	case failed < len(r.ran()):
		return ExitPartialFailure
	default:
		return ExitFailed
	}
}

// Err combines the failures of every backend, or returns nil.
func (r Report) Err() error {
	var merr *multierror.Error
	for _, res := range r.failed() {
		if res.Err != nil {
			merr = multierror.Append(merr, res.Err)
		}
	}
	return merr.ErrorOrNil()
}

// RebootRequired reports whether any backend asked for a restart.
func (r Report) RebootRequired() bool {
	for _, res := range r.Results {
		if res.Reboot == model.RebootRequired {
			return true
		}
	}
	return false
}

func (r Report) applied() bool {
	for _, res := range r.Results {
		if res.Status == model.StatusUpdatesApplied || res.Status == model.StatusRebootRequired {
			return true
		}
	}
	return false
}

// Print writes the closing summary of an update run.
func (r Report) Print(out Printer) {
	ran := r.ran()
	failed := r.failed()

	if len(ran) == 0 {
		out.Warn("No supported update tools are installed.")
		return
	}

	switch {
	case len(failed) == len(ran) && len(ran) > 1:
		out.Error("Both update mechanisms failed.")
	case len(failed) == len(ran):
		out.Error("%s updates failed.", names(failed))
	case len(failed) > 0:
		out.Warn("Warning: %s updates failed, but %s updates succeeded.", names(failed), names(succeeded(ran)))
	case r.applied():
		out.Success("Updates were successfully installed!")
	default:
		out.Success("System is up to date.")
	}

	if r.RebootRequired() {
		out.Warn("A system restart is required to complete the updates.")
	}
}

// PrintCheck writes the closing summary of a check-only run.
func (r Report) PrintCheck(out Printer) {
	var pending []model.Result
	for _, res := range r.Results {
		if res.Status == model.StatusUpdatesAvailable {
			pending = append(pending, res)
		}
	}

	switch {
	case len(pending) > 0:
		out.Success("Updates are available for: %s", names(pending))
	case len(r.failed()) == 0 && len(r.ran()) > 0:
		out.Success("System is up to date.")
	}
}

func succeeded(results []model.Result) []model.Result {
	var ok []model.Result
	for _, res := range results {
		if !res.Failed() {
			ok = append(ok, res)
		}
	}
	return ok
}

func names(results []model.Result) string {
	list := make([]string, 0, len(results))
	for _, res := range results {
		list = append(list, res.Backend)
	}
	return strings.Join(list, ", ")
}
