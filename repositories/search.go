package repositories

import (
	"context"
	"dm-lab/domain"
	"dm-lab/domain/search"
	"log/slog"

	"github.com/blugelabs/bluge"
	"github.com/blugelabs/bluge/analysis"
	"github.com/blugelabs/bluge/analysis/analyzer"
)

const (
	fieldConversation = "conversation"
	fieldContent      = "content"
	fieldCreatedAt    = "created_at"
)

// MessageIndex is a bluge full-text index of message contents, scoped by conversation.
type MessageIndex struct {
	writer   *bluge.Writer
	analyzer *analysis.Analyzer
	log      *slog.Logger
}

func OpenMessageIndex(path string, log *slog.Logger) (*MessageIndex, error) {
	writer, err := bluge.OpenWriter(bluge.DefaultConfig(path))
	if err != nil {
		return nil, err
	}
	return &MessageIndex{writer: writer, analyzer: analyzer.NewStandardAnalyzer(), log: log}, nil
}

func (i *MessageIndex) Index(message domain.Message) error {
	doc := bluge.NewDocument(message.ID).
		AddField(bluge.NewKeywordField(fieldConversation, message.ConversationID)).
		AddField(bluge.NewTextField(fieldContent, message.Content).WithAnalyzer(i.analyzer)).
		AddField(bluge.NewDateTimeField(fieldCreatedAt, message.CreatedAt))
	return i.writer.Update(doc.ID(), doc)
}

// Search returns the ids of the best matching messages of a conversation.
// The input accepts "quoted phrases" and -excluded words. An input with nothing positive matches nothing.
func (i *MessageIndex) Search(conversationID, input string, limit int) ([]string, error) {
	parsed := search.NewSearchQuery(input)
	if parsed.IsEmpty() {
		return nil, nil
	}

	reader, err := i.writer.Reader()
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := reader.Close(); err != nil {
			i.log.Warn("Unable to close search reader", "error", err)
		}
	}()

	q := bluge.NewBooleanQuery().
		AddMust(bluge.NewTermQuery(conversationID).SetField(fieldConversation))
	if parsed.Terms != "" {
		q.AddMust(bluge.NewMatchQuery(parsed.Terms).SetField(fieldContent).SetAnalyzer(i.analyzer))
	}
	for _, phrase := range parsed.Phrases {
		q.AddMust(bluge.NewMatchPhraseQuery(phrase).SetField(fieldContent).SetAnalyzer(i.analyzer))
	}
	for _, word := range parsed.Excluded {
		q.AddMustNot(bluge.NewMatchQuery(word).SetField(fieldContent).SetAnalyzer(i.analyzer))
	}
	matches, err := reader.Search(context.Background(), bluge.NewTopNSearch(limit, q))
	if err != nil {
		return nil, err
	}

	var ids []string
	match, err := matches.Next()
	for err == nil && match != nil {
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			if field == "_id" {
				ids = append(ids, string(value))
				return false
			}
			return true
		})
		if err != nil {
			return nil, err
		}
		match, err = matches.Next()
	}
	return ids, err
}

func (i *MessageIndex) Close() error {
	return i.writer.Close()
}
