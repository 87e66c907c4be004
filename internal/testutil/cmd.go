package testutil

import (
	"reflect"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// CmdTimeout bounds a single command in Drain and Pump. Commands that take
// longer, such as poll ticks, are abandoned.
var CmdTimeout = time.Second

var cmdType = reflect.TypeOf((tea.Cmd)(nil))

// Drain runs cmd and every command it batches, returning the leaf messages
// in order.
func Drain(cmd tea.Cmd) []tea.Msg {
	return run(cmd)
}

// Pump runs cmd and feeds every resulting message back through update
// until no command is left, or steps messages have been delivered.
// It returns the delivered messages.
func Pump(update func(tea.Msg) tea.Cmd, cmd tea.Cmd) []tea.Msg {
	const steps = 200
	var delivered []tea.Msg
	queue := run(cmd)
	for len(queue) > 0 && len(delivered) < steps {
		msg := queue[0]
		queue = queue[1:]
		delivered = append(delivered, msg)
		queue = append(queue, run(update(msg))...)
	}
	return delivered
}

func run(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg, ok := exec(cmd)
	if !ok || msg == nil {
		return nil
	}
	if cmds, ok := batched(msg); ok {
		var out []tea.Msg
		for _, c := range cmds {
			out = append(out, run(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func exec(cmd tea.Cmd) (tea.Msg, bool) {
	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()
	select {
	case msg := <-done:
		return msg, true
	case <-time.After(CmdTimeout):
		return nil, false
	}
}

// batched unwraps tea.BatchMsg and the sequence message, both of which are
// slices of commands.
func batched(msg tea.Msg) ([]tea.Cmd, bool) {
	if b, ok := msg.(tea.BatchMsg); ok {
		return b, true
	}
	v := reflect.ValueOf(msg)
	if v.Kind() != reflect.Slice || v.Type().Elem() != cmdType {
		return nil, false
	}
	cmds := make([]tea.Cmd, v.Len())
	for i := range cmds {
		cmds[i], _ = v.Index(i).Interface().(tea.Cmd)
	}
	return cmds, true
}
