package lsquery

// Collector is the ordered, append-only response sequence for one
// traversal run. Insertion order is the traversal's deterministic visit
// order, so for a fixed tree the first response is the most specific
// match. A Collector belongs to exactly one run and is discarded, not
// reused, once its consumer has extracted an answer.
type Collector struct {
	responses []Response
}

// NewCollector returns an empty collector for one run.
func NewCollector() *Collector {
	return &Collector{}
}

// Push appends a response. Only the traversal that owns the run may call
// Push; there are no concurrent writers.
func (c *Collector) Push(r Response) {
	c.responses = append(c.responses, r)
}

// First returns the earliest (most specific) response, if any.
func (c *Collector) First() (Response, bool) {
	if len(c.responses) == 0 {
		return Response{}, false
	}
	return c.responses[0], true
}

// Responses returns all responses in visit order. The slice is owned by
// the collector; callers must not mutate it.
func (c *Collector) Responses() []Response {
	return c.responses
}

// Empty reports whether the run matched nothing.
func (c *Collector) Empty() bool {
	return len(c.responses) == 0
}
