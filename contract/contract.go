//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"dm-lab/domain"
	"dm-lab/domain/event"
	"reflect"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// It is only used for logging during supervision.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink receives the events of the rooms it joined.
// Consume must not block: a sink that cannot keep up returns an error.
type EventSink interface {
	Consume(ctx context.Context, e event.Event) error
}

// IEmitter is the only capability the services get from the realtime gateway.
type IEmitter interface {
	Emit(ctx context.Context, room domain.RoomID, name event.Name, payload any) error
}

// ICensor rewrites forbidden words of a content and returns the words it found.
type ICensor interface {
	Censor(content string) (string, []string)
}

// ISearchIndex indexes messages for full-text search inside a conversation.
type ISearchIndex interface {
	Index(message domain.Message) error
	Search(conversationID, query string, limit int) ([]string, error)
}
