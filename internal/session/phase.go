package session

// Phase is where the voice logging cycle currently is.
type Phase string

const (
	PhaseIdle          Phase = "idle"
	PhaseTranscribing  Phase = "transcribing"
	PhaseConfirming    Phase = "confirming"
	PhaseAwaitingYesNo Phase = "awaiting_yesno"
	PhaseLogging       Phase = "logging"
)

// Reason says why an event was published.
type Reason string

const (
	ReasonRefreshed       Reason = "refreshed"
	ReasonStarted         Reason = "started"
	ReasonTranscript      Reason = "transcript"
	ReasonListenerError   Reason = "listener_error"
	ReasonHint            Reason = "hint"
	ReasonRecognized      Reason = "recognized"
	ReasonAwaitingAnswer  Reason = "awaiting_answer"
	ReasonClarifying      Reason = "clarifying"
	ReasonButtonsOnly     Reason = "buttons_only"
	ReasonLogging         Reason = "logging"
	ReasonLogged          Reason = "logged"
	ReasonPersistFailed   Reason = "persist_failed"
	ReasonRejected        Reason = "rejected"
	ReasonAbandoned       Reason = "abandoned"
	ReasonNoSet           Reason = "no_set"
	ReasonRecordingFailed Reason = "recording_failed"
	ReasonSkipped         Reason = "skipped"
	ReasonFinished        Reason = "finished"
)

// Outcome is how a Start, Confirm or Reject call ended.
type Outcome string

const (
	OutcomeLogged          Outcome = "logged"
	OutcomeRejected        Outcome = "rejected"
	OutcomeAbandoned       Outcome = "abandoned"
	OutcomeAwaitingButtons Outcome = "awaiting_buttons"
	OutcomePersistFailed   Outcome = "persist_failed"
	OutcomeNoSet           Outcome = "no_set"
	OutcomeRecordingFailed Outcome = "recording_failed"
	OutcomeSkipped         Outcome = "skipped"
	// OutcomeSuperseded means a button press or Finish resolved the cycle
	// first and this call's result was ignored.
	OutcomeSuperseded Outcome = "superseded"
)
