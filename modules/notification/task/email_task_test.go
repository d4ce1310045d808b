package task

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"strings"
	"testing"
	"zoom-lms-api/core/constants"

	"github.com/hibiken/asynq"
)

func emailTask(t *testing.T, payload MeetingStartEmailPayload) *asynq.Task {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return asynq.NewTask(constants.TaskTypeMeetingStartEmail, raw)
}

func TestEmailHandlerSendsRenderedEmail(t *testing.T) {
	var gotTo, gotSubject, gotBody string
	handler := NewEmailHandler("EOL", func(to, subject, htmlBody string) error {
		gotTo, gotSubject, gotBody = to, subject, htmlBody
		return nil
	})

	payload := MeetingStartEmailPayload{
		Email:       "ana@example.com",
		CourseName:  "Cálculo I",
		RedirectURL: "https://lms.example.com/courses/c/jump_to/u",
	}
	if err := handler.ProcessTask(context.Background(), emailTask(t, payload)); err != nil {
		t.Fatalf("ProcessTask: %v", err)
	}

	if gotTo != payload.Email {
		t.Errorf("sent to %q, want %q", gotTo, payload.Email)
	}
	if want := "EOL - Sesión de Zoom iniciada en Cálculo I"; gotSubject != want {
		t.Errorf("subject = %q, want %q", gotSubject, want)
	}
	if !strings.Contains(gotBody, payload.RedirectURL) {
		t.Errorf("body does not carry the course link: %q", gotBody)
	}
}

func TestEmailHandlerPropagatesSendFailure(t *testing.T) {
	sendErr := stderrors.New("smtp refused")
	handler := NewEmailHandler("EOL", func(to, subject, htmlBody string) error {
		return sendErr
	})

	err := handler.ProcessTask(context.Background(), emailTask(t, MeetingStartEmailPayload{
		Email: "ana@example.com",
	}))
	if !stderrors.Is(err, sendErr) {
		t.Fatalf("err = %v, want the send failure so asynq retries", err)
	}
}

func TestEmailHandlerRejectsMalformedPayload(t *testing.T) {
	handler := NewEmailHandler("EOL", func(to, subject, htmlBody string) error {
		t.Fatal("malformed payload must not send")
		return nil
	})

	task := asynq.NewTask(constants.TaskTypeMeetingStartEmail, []byte("{not json"))
	if err := handler.ProcessTask(context.Background(), task); err == nil {
		t.Fatal("expected unmarshal error")
	}
}
