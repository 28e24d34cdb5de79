package popup

import (
	"testing"

	"github.com/rtr46/hoverdict/model"
)

func TestLoggingSinkImplementsSink(t *testing.T) {
	var _ Sink = LoggingSink{}
}

func TestLoggingSinkShowAndHideDoNotPanic(t *testing.T) {
	sink := LoggingSink{}
	results := []model.DictionaryEntryResult{{WrittenForm: "本", Reading: "ほん"}}

	sink.Show(results, 10, 20)
	sink.Hide()
}
