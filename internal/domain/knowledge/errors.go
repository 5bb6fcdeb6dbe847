package knowledge

import "errors"

// ErrInvalidKnowledgeBase is wrapped by every load and validation failure.
var ErrInvalidKnowledgeBase = errors.New("invalid knowledge base")
