package telegram

import (
	"context"
	"errors"
	"testing"

	"group-quiz-bot/internal/app"
	"group-quiz-bot/internal/domain"
	"gopkg.in/telebot.v4"
)

type sent struct {
	to   string
	what interface{}
	opts []interface{}
}

type fakeAPI struct {
	sent      []sent
	responded []*telebot.CallbackResponse
	callbacks []string
	role      telebot.MemberStatus
	err       error
}

func (f *fakeAPI) Send(to telebot.Recipient, what interface{}, opts ...interface{}) (*telebot.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.sent = append(f.sent, sent{to: to.Recipient(), what: what, opts: opts})
	return &telebot.Message{}, nil
}

func (f *fakeAPI) Respond(c *telebot.Callback, resp ...*telebot.CallbackResponse) error {
	f.callbacks = append(f.callbacks, c.ID)
	f.responded = append(f.responded, resp...)
	return f.err
}

func (f *fakeAPI) ChatMemberOf(chat, user telebot.Recipient) (*telebot.ChatMember, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &telebot.ChatMember{Role: f.role}, nil
}

func TestParseAnswer(t *testing.T) {
	cases := []struct {
		data   string
		option int
		ok     bool
	}{
		{"\fanswer_2", 2, true},
		{"answer_0", 0, true},
		{"\fanswer_1|extra", 1, true},
		{"\fanswer_x", -1, true},
		{"\fstart_test", 0, false},
	}
	for _, tc := range cases {
		option, ok := parseAnswer(tc.data)
		if option != tc.option || ok != tc.ok {
			t.Fatalf("parseAnswer(%q) = %d, %v; want %d, %v", tc.data, option, ok, tc.option, tc.ok)
		}
	}
}

func TestEmitRoutesPrivateMessagesToUser(t *testing.T) {
	api := &fakeAPI{}
	tr := NewTransport(api)
	ctx := context.Background()

	question := domain.Message{
		Target:  domain.Target{Conversation: "-100"},
		Kind:    domain.KindQuestion,
		Text:    "Q1/1: What is 2 + 2?",
		Choices: []string{"3", "4"},
	}
	if err := tr.Emit(ctx, question); err != nil {
		t.Fatalf("emit question: %v", err)
	}
	result := domain.Message{
		Target: domain.Target{Conversation: "-100", Participant: "42"},
		Kind:   domain.KindResult,
		Text:   "✅ Correct!",
	}
	if err := tr.Emit(ctx, result); err != nil {
		t.Fatalf("emit result: %v", err)
	}

	if len(api.sent) != 2 || api.sent[0].to != "-100" || api.sent[1].to != "42" {
		t.Fatalf("unexpected recipients: %+v", api.sent)
	}
	opts := api.sent[0].opts[0].(*telebot.SendOptions)
	keyboard := opts.ReplyMarkup.InlineKeyboard
	if len(keyboard) != 2 || keyboard[1][0].Unique != "answer_1" || keyboard[1][0].Text != "2. 4" {
		t.Fatalf("unexpected keyboard: %+v", keyboard)
	}
}

func TestEmitRejectsNonNumericConversation(t *testing.T) {
	tr := NewTransport(&fakeAPI{})
	err := tr.Emit(context.Background(), domain.Message{Target: domain.Target{Conversation: "room"}})
	if err == nil {
		t.Fatalf("expected error for non-numeric chat id")
	}
}

func TestEmitAckAnswersCallback(t *testing.T) {
	api := &fakeAPI{}
	if err := NewTransport(api).EmitAck(context.Background(), "cb-1", "✅ Correct!"); err != nil {
		t.Fatalf("ack: %v", err)
	}
	if len(api.callbacks) != 1 || api.callbacks[0] != "cb-1" || api.responded[0].Text != "✅ Correct!" {
		t.Fatalf("unexpected responses: %v %+v", api.callbacks, api.responded)
	}
}

func TestPermissionsByRole(t *testing.T) {
	ctx := context.Background()
	for role, want := range map[telebot.MemberStatus]bool{
		telebot.Creator:       true,
		telebot.Administrator: true,
		telebot.Member:        false,
	} {
		ok, err := NewPermissions(&fakeAPI{role: role}).IsPrivileged(ctx, "42", "-100")
		if err != nil {
			t.Fatalf("is privileged: %v", err)
		}
		if ok != want {
			t.Fatalf("role %s: expected %v, got %v", role, want, ok)
		}
	}

	boom := errors.New("boom")
	if _, err := NewPermissions(&fakeAPI{err: boom}).IsPrivileged(ctx, "42", "-100"); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped api error, got %v", err)
	}
}

func TestParticipantOf(t *testing.T) {
	p := participantOf(&telebot.User{ID: 7, FirstName: "Ada", LastName: "Lovelace"})
	if p.ID != "7" || p.DisplayName != "Ada Lovelace" {
		t.Fatalf("unexpected participant: %+v", p)
	}
	if p := participantOf(&telebot.User{ID: 8, Username: "grace"}); p.DisplayName != "grace" {
		t.Fatalf("expected username fallback, got %+v", p)
	}
}

type recordingEngine struct {
	answers []app.AnswerSubmission
}

func (r *recordingEngine) OnStartRequested(context.Context, app.StartRequest) error { return nil }

func (r *recordingEngine) OnAnswerSubmitted(_ context.Context, sub app.AnswerSubmission) (domain.AnswerResult, error) {
	r.answers = append(r.answers, sub)
	if sub.Option < 0 {
		return domain.AnswerResult{}, domain.ErrMalformedSelection
	}
	return domain.AnswerResult{Selected: sub.Option}, nil
}

func (r *recordingEngine) OnPoll(context.Context) int                            { return 0 }
func (r *recordingEngine) ShowLeaderboard(context.Context, string) error         { return nil }
func (r *recordingEngine) ResetScores(context.Context, app.ControlRequest) error { return nil }
func (r *recordingEngine) StopSession(context.Context, app.ControlRequest) error { return nil }

func TestUnparsableAnswerReachesEngine(t *testing.T) {
	bot, err := telebot.NewBot(telebot.Settings{Offline: true})
	if err != nil {
		t.Fatalf("offline bot: %v", err)
	}
	engine := &recordingEngine{}
	h := NewHandlers(context.Background(), engine, nil)

	c := bot.NewContext(telebot.Update{Callback: &telebot.Callback{
		ID:      "cb-1",
		Data:    "\fanswer_x",
		Sender:  &telebot.User{ID: 42, FirstName: "Ada"},
		Message: &telebot.Message{Chat: &telebot.Chat{ID: -100, Type: telebot.ChatGroup}},
	}})
	if err := h.answer(c); err != nil {
		t.Fatalf("answer: %v", err)
	}

	if len(engine.answers) != 1 {
		t.Fatalf("expected the engine to see the answer, got %+v", engine.answers)
	}
	got := engine.answers[0]
	if got.Option != -1 || got.EventID != "cb-1" || got.Conversation != "-100" || got.Participant.ID != "42" {
		t.Fatalf("unexpected submission: %+v", got)
	}
}
