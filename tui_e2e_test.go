package main

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"
	"github.com/stretchr/testify/require"
)

func quitTestModel(tm *teatest.TestModel) {
	// Quit the application (requires double CTRL-C)
	tm.Send(tea.KeyMsg{Type: tea.KeyCtrlC})
	time.Sleep(ctrlCDebounceTime + 50*time.Millisecond)
	tm.Send(tea.KeyMsg{Type: tea.KeyCtrlC})
}

func TestChatRoundTrip(t *testing.T) {
	model, history := newTestTUIModel(t, assistantFunc(func(ctx context.Context, req DispatchRequest) (*AssistantReply, error) {
		return &AssistantReply{Text: "Hay 3 propiedades disponibles"}, nil
	}))

	tm := teatest.NewTestModel(t, model, teatest.WithInitialTermSize(100, 40))

	teatest.WaitFor(t, tm.Output(), func(bts []byte) bool {
		return strings.Contains(string(bts), "Ana")
	}, teatest.WithCheckInterval(time.Millisecond*100), teatest.WithDuration(time.Second*3))

	// Type sends one byte per key, which splits multi-byte runes
	tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("¿Qué propiedades hay?")})
	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})

	teatest.WaitFor(t, tm.Output(), func(bts []byte) bool {
		return strings.Contains(string(bts), "Hay 3 propiedades disponibles")
	}, teatest.WithCheckInterval(time.Millisecond*100), teatest.WithDuration(time.Second*3))

	quitTestModel(tm)

	finalModel := tm.FinalModel(t, teatest.WithFinalTimeout(time.Second*3))
	tuiModel, ok := finalModel.(TUIModel)
	require.True(t, ok)
	require.Empty(t, tuiModel.prompt.Value())

	stored := history.Load("7")
	require.Len(t, stored, 2)
	require.Equal(t, "¿Qué propiedades hay?", stored[0].Content)
	require.Equal(t, "Hay 3 propiedades disponibles", stored[1].Content)
}

func TestActionConfirmationFlow(t *testing.T) {
	var confirmed []DispatchRequest
	done := make(chan struct{}, 1)
	assistant := assistantFunc(func(ctx context.Context, req DispatchRequest) (*AssistantReply, error) {
		if req.IsConfirmation {
			confirmed = append(confirmed, req)
			done <- struct{}{}
			return &AssistantReply{Text: "Compra realizada"}, nil
		}
		return armingAssistant()(ctx, req)
	})
	model, _ := newTestTUIModel(t, assistant)

	tm := teatest.NewTestModel(t, model, teatest.WithInitialTermSize(100, 40))

	tm.Type("quiero 10 tokens")
	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})

	teatest.WaitFor(t, tm.Output(), func(bts []byte) bool {
		return strings.Contains(string(bts), "ctrl+y confirmar")
	}, teatest.WithCheckInterval(time.Millisecond*100), teatest.WithDuration(time.Second*3))

	tm.Send(tea.KeyMsg{Type: tea.KeyCtrlY})

	teatest.WaitFor(t, tm.Output(), func(bts []byte) bool {
		return strings.Contains(string(bts), "Compra realizada")
	}, teatest.WithCheckInterval(time.Millisecond*100), teatest.WithDuration(time.Second*3))

	quitTestModel(tm)
	tm.WaitFinished(t, teatest.WithFinalTimeout(time.Second*3))

	<-done
	require.Len(t, confirmed, 1)
	require.Equal(t, confirmPrefix+"Comprar 10 tokens", confirmed[0].Message)
	require.Equal(t, "Comprar 10 tokens", confirmed[0].ConfirmedAction["description"])
	require.Nil(t, model.widget.Pending())
}

func TestLogoutCommand(t *testing.T) {
	model, history := newTestTUIModel(t, armingAssistant())
	require.NoError(t, history.Append("7", Message{Role: RoleUser, Content: "antes", Timestamp: 1}))

	tm := teatest.NewTestModel(t, model, teatest.WithInitialTermSize(100, 40))

	tm.Type(":logout")
	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})

	teatest.WaitFor(t, tm.Output(), func(bts []byte) bool {
		return strings.Contains(string(bts), loggedOutText)
	}, teatest.WithCheckInterval(time.Millisecond*100), teatest.WithDuration(time.Second*3))

	tm.Type("q")

	finalModel := tm.FinalModel(t, teatest.WithFinalTimeout(time.Second*3))
	tuiModel, ok := finalModel.(TUIModel)
	require.True(t, ok)
	require.True(t, tuiModel.loggedOut)
	require.Empty(t, history.Load("7"))
	require.Nil(t, model.widget.Session())
}
