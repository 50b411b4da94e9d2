package telegram

import (
	"errors"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func TestPickLargestPhoto(t *testing.T) {
	t.Parallel()
	items := []tgbotapi.PhotoSize{
		{FileID: "small", FileSize: 100, Width: 90, Height: 90},
		{FileID: "large", FileSize: 9000, Width: 1280, Height: 960},
		{FileID: "medium", FileSize: 2000, Width: 320, Height: 240},
	}
	if got := pickLargestPhoto(items); got.FileID != "large" {
		t.Fatalf("picked %q, want large", got.FileID)
	}
}

func TestPickLargestPhotoEmpty(t *testing.T) {
	t.Parallel()
	if got := pickLargestPhoto(nil); got.FileID != "" {
		t.Fatalf("picked %q from empty slice", got.FileID)
	}
}

func TestIsMessageNotModified(t *testing.T) {
	t.Parallel()
	apiErr := tgbotapi.Error{Code: 400, Message: "Bad Request: message is not modified"}
	if !isMessageNotModified(apiErr) {
		t.Error("not-modified error not recognized")
	}
	if isMessageNotModified(tgbotapi.Error{Code: 400, Message: "Bad Request: chat not found"}) {
		t.Error("unrelated 400 treated as not-modified")
	}
	if isMessageNotModified(errors.New("network down")) {
		t.Error("plain error treated as not-modified")
	}
}

func TestSendErrorUnwraps(t *testing.T) {
	t.Parallel()
	cause := errors.New("boom")
	err := &SendError{Op: "send", Err: cause}
	if !errors.Is(err, cause) {
		t.Fatal("SendError does not unwrap its cause")
	}
}
