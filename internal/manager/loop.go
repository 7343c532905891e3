package manager

import (
	"errors"
	"time"

	"github.com/calder-vis/motionlink/internal/command"
	"github.com/calder-vis/motionlink/internal/hid"
	"github.com/calder-vis/motionlink/internal/profile"
	"github.com/calder-vis/motionlink/internal/registry"
	"github.com/calder-vis/motionlink/internal/session"
)

// run is the session poll loop. It owns the session exclusively until it
// returns; stopLoopLocked waits for that before touching the handle.
//
// The loop checks the stop signal before every poll and again after
// dispatch, so a disconnect request is honoured within one iteration.
// Per-sample errors (render mismatch, endpoint send failure) are absorbed
// and logged; only an exhausted hardware failure budget ends the loop on
// its own.
func (m *Manager) run(sess *session.Session, prof *profile.Profile, tmpl *command.Template, stop chan struct{}) {
	defer m.loopWG.Done()

	desc := sess.Descriptor()
	streaming := false
	lastStats := time.Now()

	for {
		select {
		case <-stop:
			return
		default:
		}

		sample, err := sess.Poll()
		if err != nil {
			switch {
			case errors.Is(err, hid.ErrNoData):
				if !sleepOrStop(stop, m.deps.IdleBackoff) {
					return
				}
				continue

			case errors.Is(err, session.ErrHardwareFault):
				m.pollFailures.Add(1)
				reason := reasonFor(err)
				m.deps.Logger.Error("session faulted",
					"device", desc.Name,
					"session_id", sess.ID(),
					"error", err,
				)
				m.setFault(reason)
				m.emit(StatusEvent{
					Device:    desc.Name,
					SessionID: sess.ID(),
					State:     session.StateError,
					Reason:    reason,
					At:        time.Now(),
				})
				// The handle is released here too, not only on Close.
				_ = sess.Close()
				return

			case errors.Is(err, session.ErrClosed):
				return

			default:
				// Transient failure below the budget; keep polling.
				m.pollFailures.Add(1)
				m.deps.Logger.Warn("poll failure", "device", desc.Name, "error", err)
				if !sleepOrStop(stop, m.deps.PollInterval) {
					return
				}
				continue
			}
		}

		m.samples.Add(1)
		if !streaming {
			streaming = true
			m.emit(StatusEvent{
				Device:    desc.Name,
				SessionID: sess.ID(),
				State:     session.StateStreaming,
				At:        time.Now(),
			})
			m.deps.Logger.Info("session streaming", "device", desc.Name, "session_id", sess.ID())
		}

		m.dispatchSample(desc, prof, tmpl, sample)

		if m.deps.Recorder != nil && time.Since(lastStats) >= statsWriteInterval {
			m.deps.Recorder.WriteLoopStats(desc.Name,
				m.samples.Load(),
				m.commandsSent.Load(),
				m.sendFailures.Load(),
				m.pollFailures.Load(),
			)
			lastStats = time.Now()
		}

		select {
		case <-stop:
			return
		default:
		}

		if !sleepOrStop(stop, m.deps.PollInterval) {
			return
		}
	}
}

// dispatchSample turns one raw sample into a rendered command and fans
// it out. Every failure in here is absorbed.
func (m *Manager) dispatchSample(desc registry.Descriptor, prof *profile.Profile, tmpl *command.Template, sample session.RawSample) {
	axes := prof.Apply(sample.Axes)
	axes = prof.Reduce(axes, desc.Type)
	label := deriveLabel(desc, sample.Buttons)

	labels := make([]string, tmpl.LabelPlaceholders())
	for i := range labels {
		labels[i] = label
	}

	cmd, err := tmpl.Render(command.Fields{Axes: axes, Labels: labels})
	if err != nil {
		m.deps.Logger.Warn("command render failed",
			"device", desc.Name,
			"template", tmpl.Pattern(),
			"error", err,
		)
		return
	}

	for _, res := range m.deps.Sink.Send(cmd) {
		if res.Err != nil {
			m.sendFailures.Add(1)
			m.deps.Logger.Warn("command delivery failed",
				"device", desc.Name,
				"endpoint", res.Endpoint,
				"error", res.Err,
			)
			continue
		}
		m.commandsSent.Add(1)
	}

	if m.deps.Recorder != nil {
		m.deps.Recorder.WriteMotionSample(desc.Name, string(desc.Type), axes, desc.Axes)
	}
}

// deriveLabel picks the value for %s placeholders: the first pressed
// button's configured name, else the default duration literal.
func deriveLabel(desc registry.Descriptor, buttons []bool) string {
	for i, pressed := range buttons {
		if pressed && i < len(desc.Buttons) {
			return desc.Buttons[i]
		}
	}
	return defaultLabel
}

// sleepOrStop pauses for d unless the stop signal fires first.
// Returns false when the loop should exit.
func sleepOrStop(stop chan struct{}, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-stop:
		return false
	case <-t.C:
		return true
	}
}
