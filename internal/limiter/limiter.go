package limiter

// Inference bounds concurrent model calls in-process. The model runtime
// serializes badly under load, so saturated slots reject instead of queue.
type Inference struct {
    sem chan struct{}
}

func New(maxInflight int) *Inference {
    if maxInflight <= 0 {
        maxInflight = 5
    }
    return &Inference{sem: make(chan struct{}, maxInflight)}
}

// Allow tries to reserve an inference slot. Returns a release function and
// true if allowed; otherwise a no-op and false.
func (l *Inference) Allow() (func(), bool) {
    select {
    case l.sem <- struct{}{}:
        return func() { <-l.sem }, true
    default:
        return func() {}, false
    }
}
