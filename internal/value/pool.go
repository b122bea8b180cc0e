package value

import "sync"

// String is an interned, immutable piece of text. Two handles from the
// same Pool are the same pointer exactly when their text is equal.
type String struct {
	text string
	id   uint32
}

// Text returns the backing text. A nil handle reads as empty.
func (s *String) Text() string {
	if s == nil {
		return ""
	}
	return s.text
}

// Len returns the text length in bytes.
func (s *String) Len() int {
	if s == nil {
		return 0
	}
	return len(s.text)
}

// ID is the handle's insertion index within its pool.
func (s *String) ID() uint32 { return s.id }

func (s *String) String() string { return s.Text() }

// Pool interns strings for a session. Entries are never evicted; a
// handle stays valid for as long as the pool or any value holds it.
// Safe for concurrent use so forked sessions may share one pool.
type Pool struct {
	mu     sync.RWMutex
	byText map[string]*String
	byID   []*String
}

// NewPool creates an empty intern pool.
func NewPool() *Pool {
	return &Pool{
		byText: make(map[string]*String),
		byID:   make([]*String, 0, 64),
	}
}

// Intern returns the canonical handle for text, creating it if needed.
func (p *Pool) Intern(text string) *String {
	p.mu.RLock()
	if s, ok := p.byText[text]; ok {
		p.mu.RUnlock()
		return s
	}
	p.mu.RUnlock()

	p.mu.Lock()
	defer p.mu.Unlock()

	// Double-check after acquiring write lock
	if s, ok := p.byText[text]; ok {
		return s
	}

	s := &String{text: text, id: uint32(len(p.byID))}
	p.byText[text] = s
	p.byID = append(p.byID, s)
	return s
}

// Lookup returns the handle for text without interning it.
func (p *Pool) Lookup(text string) (*String, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s, ok := p.byText[text]
	return s, ok
}

// Len returns the number of distinct interned strings.
func (p *Pool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.byID)
}

// All returns every interned text in insertion order.
func (p *Pool) All() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]string, len(p.byID))
	for i, s := range p.byID {
		out[i] = s.text
	}
	return out
}
