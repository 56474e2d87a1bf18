package resolver

import "time"

// Canned answers with a random pick from Responses after Delay.
type Canned struct {
	Delay     time.Duration
	Responses []string

	pick func(n int) int
}

// Schedule settles f once Delay elapses. The returned timer may be stopped to
// abandon the reply.
func (c *Canned) Schedule(f *Future) *time.Timer {
	return time.AfterFunc(c.Delay, func() {
		f.resolve(Reply{Text: c.choose(), Source: SourceCanned})
	})
}

func (c *Canned) choose() string {
	if len(c.Responses) == 0 {
		return AckMessage
	}
	i := c.pick(len(c.Responses))
	if i < 0 || i >= len(c.Responses) {
		i = 0
	}
	return c.Responses[i]
}
