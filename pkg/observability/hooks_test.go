package observability

import (
	"context"
	"testing"
	"time"
)

type countingWalkHooks struct {
	starts, nodes, drops, completes int
}

func (h *countingWalkHooks) OnWalkStart(context.Context, string)                   { h.starts++ }
func (h *countingWalkHooks) OnNodeDiscovered(context.Context, string, string, int) { h.nodes++ }
func (h *countingWalkHooks) OnEdgeDropped(context.Context, string, string, string) { h.drops++ }
func (h *countingWalkHooks) OnWalkComplete(context.Context, string, int, time.Duration, error) {
	h.completes++
}

func TestHookRegistration(t *testing.T) {
	defer Reset()

	hooks := &countingWalkHooks{}
	SetWalkHooks(hooks)

	ctx := context.Background()
	Walk().OnWalkStart(ctx, "express")
	Walk().OnNodeDiscovered(ctx, "accepts", "1.3.8", 1)
	Walk().OnEdgeDropped(ctx, "fsevents", "^2.3.2", "platform")
	Walk().OnWalkComplete(ctx, "express", 2, time.Second, nil)

	if hooks.starts != 1 || hooks.nodes != 1 || hooks.drops != 1 || hooks.completes != 1 {
		t.Errorf("hook counts = %+v, want all 1", *hooks)
	}
}

func TestSetNilKeepsCurrent(t *testing.T) {
	defer Reset()

	hooks := &countingWalkHooks{}
	SetWalkHooks(hooks)
	SetWalkHooks(nil)

	Walk().OnWalkStart(context.Background(), "react")
	if hooks.starts != 1 {
		t.Error("SetWalkHooks(nil) should not replace registered hooks")
	}
}

func TestResetRestoresNoops(t *testing.T) {
	hooks := &countingWalkHooks{}
	SetWalkHooks(hooks)
	Reset()

	Walk().OnWalkStart(context.Background(), "react")
	if hooks.starts != 0 {
		t.Error("Reset should restore no-op hooks")
	}
}
