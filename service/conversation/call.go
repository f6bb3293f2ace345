package conversation

import (
	"fmt"
	"time"

	"github.com/danglnh07/titan/db"
	"github.com/danglnh07/titan/fault"
)

// Simulated call signaling: an outgoing call rings after a short setup delay
// and auto-connects when the ring is answered on the other side. Every
// terminal transition leaves a call-log message in the chat.

type CallStatus string

const (
	CallIdle            CallStatus = "idle"
	CallInitiating      CallStatus = "initiating_outgoing"
	CallOutgoingRinging CallStatus = "outgoing_ringing"
	CallIncomingRinging CallStatus = "incoming_ringing"
	CallConnected       CallStatus = "connected"
)

type CallType string

const (
	VoiceCall CallType = "voice"
	VideoCall CallType = "video"
)

const (
	callRingDelay    = 1500 * time.Millisecond
	callConnectDelay = 4 * time.Second
)

// CallInfo is the single in-flight call. There is at most one; starting a new
// call while another is active is rejected.
type CallInfo struct {
	ChatID   string
	PeerID   string
	PeerName string
	Type     CallType
	Status   CallStatus
	Incoming bool

	ConnectedAt time.Time
	generation  uint64
}

func (e *Engine) CurrentCall() CallInfo {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.call
}

// StartCall begins an outgoing call and schedules the ring and auto-connect
// transitions. Stale timers from a superseded call are ignored through the
// generation counter.
func (e *Engine) StartCall(chatID, peerID string, callType CallType) error {
	if _, err := e.actor(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.call.Status != CallIdle {
		return fault.Validationf("call.already_in_call")
	}
	if e.chat(chatID) == nil {
		return fault.NotFoundf("general.error")
	}

	peerName := e.ids.Resolve(peerID).DisplayName()
	gen := e.call.generation + 1
	e.call = CallInfo{
		ChatID:     chatID,
		PeerID:     peerID,
		PeerName:   peerName,
		Type:       callType,
		Status:     CallInitiating,
		generation: gen,
	}

	time.AfterFunc(callRingDelay, func() {
		e.advanceCall(gen, CallInitiating, CallOutgoingRinging)
	})
	time.AfterFunc(callRingDelay+callConnectDelay, func() {
		e.advanceCall(gen, CallOutgoingRinging, CallConnected)
	})
	return nil
}

// ReceiveCall registers an incoming ring from a peer.
func (e *Engine) ReceiveCall(chatID, fromID string, callType CallType) error {
	if _, err := e.actor(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.call.Status != CallIdle {
		return fault.Validationf("call.already_in_call")
	}
	if e.chat(chatID) == nil {
		return fault.NotFoundf("general.error")
	}
	e.call = CallInfo{
		ChatID:     chatID,
		PeerID:     fromID,
		PeerName:   e.ids.Resolve(fromID).DisplayName(),
		Type:       callType,
		Status:     CallIncomingRinging,
		Incoming:   true,
		generation: e.call.generation + 1,
	}
	return nil
}

// AnswerCall connects an incoming ring.
func (e *Engine) AnswerCall() error {
	if _, err := e.actor(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.call.Status != CallIncomingRinging {
		return fault.Validationf("call.no_incoming_call")
	}
	e.call.Status = CallConnected
	e.call.ConnectedAt = e.Now()
	return nil
}

// DeclineCall rejects an incoming ring and records the decline in the chat.
func (e *Engine) DeclineCall() error {
	actor, err := e.actor()
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.call.Status != CallIncomingRinging {
		return fault.Validationf("call.no_incoming_call")
	}
	call := e.call
	e.resetCall()

	text := fmt.Sprintf("Call declined by %s", actor.Name)
	if _, err := e.send(actor, call.ChatID, text, SendOptions{Type: db.CallLogMessage}); err != nil {
		e.logger.Warn("Failed to record declined call", "chat_id", call.ChatID, "error", err)
	}
	return nil
}

// EndCall hangs up. A connected call logs its duration; hanging up before the
// peer answers logs a missed call instead.
func (e *Engine) EndCall() error {
	actor, err := e.actor()
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	call := e.call
	if call.Status == CallIdle {
		return nil
	}
	e.resetCall()

	var text, duration string
	switch call.Status {
	case CallConnected:
		duration = formatCallDuration(e.Now().Sub(call.ConnectedAt))
		text = fmt.Sprintf("Call with %s", call.PeerName)
	default:
		kind := "voice"
		if call.Type == VideoCall {
			kind = "video"
		}
		text = fmt.Sprintf("Missed %s call", kind)
	}

	_, err = e.send(actor, call.ChatID, text, SendOptions{Type: db.CallLogMessage, CallDuration: duration})
	if err != nil {
		e.logger.Warn("Failed to record call log", "chat_id", call.ChatID, "error", err)
	}
	return nil
}

// advanceCall applies a scheduled transition, skipping it when the call was
// ended or replaced in the meantime.
func (e *Engine) advanceCall(gen uint64, from, to CallStatus) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.call.generation != gen || e.call.Status != from {
		return
	}
	e.call.Status = to
	if to == CallConnected {
		e.call.ConnectedAt = e.Now()
	}
}

// resetCall returns to idle while keeping the generation monotonic so stale
// timers stay dead.
func (e *Engine) resetCall() {
	e.call = CallInfo{Status: CallIdle, generation: e.call.generation}
}

func formatCallDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Seconds())
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
