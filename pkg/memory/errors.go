package memory

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// FatalError reports an invariant violation from the region core: immutable
// mutation, region-DAG formation, a non-bridge cross-region reference, or
// RC underflow. Collect does not check whether a region's members are still
// referenced from outside it when it tears the region down, so that case is
// never reported. The core never returns these - it panics with one, matching the reference
// implementation's abort-on-assert behaviour while staying recoverable so
// property tests can assert that a bad sequence was correctly rejected.
type FatalError struct {
	Cause   error
	Subject string
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("region core invariant violation (%s): %v", e.Subject, e.Cause)
}

func (e *FatalError) Unwrap() error { return e.Cause }

// abort logs the violation at Error level and panics with a *FatalError.
// subject identifies the object/region involved, for the diagnostic.
func abort(log *logrus.Logger, subject string, format string, args ...interface{}) {
	cause := errors.Errorf(format, args...)
	if log != nil {
		log.WithField("subject", subject).Error(cause)
	}
	panic(&FatalError{Cause: cause, Subject: subject})
}
