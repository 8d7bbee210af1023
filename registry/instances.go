package registry

import "sync"

// Instances is the process-wide table mapping kind-id to the set of
// live instances of that kind, per spec.md §4.3. Lookup by instance_id
// is a linear scan across every kind's set, matching the source
// design's documented O(n) contract (this table is touched at
// instance-creation rate, not audio rate, so the scan cost is
// negligible in practice).
type Instances struct {
	mu  sync.RWMutex
	set map[string]map[uint64]Instance
}

func newInstances() *Instances {
	return &Instances{set: make(map[string]map[uint64]Instance)}
}

// Emplace adds inst to the set of live instances under kindID.
func (t *Instances) Emplace(kindID string, inst Instance) {
	t.mu.Lock()
	defer t.mu.Unlock()
	group, ok := t.set[kindID]
	if !ok {
		group = make(map[uint64]Instance)
		t.set[kindID] = group
	}
	group[inst.InstanceID()] = inst
}

// Destroy removes inst from the set under kindID, returning whether a
// matching entry was found and removed.
func (t *Instances) Destroy(kindID string, inst Instance) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	group, ok := t.set[kindID]
	if !ok {
		return false
	}
	if _, present := group[inst.InstanceID()]; !present {
		return false
	}
	delete(group, inst.InstanceID())
	if len(group) == 0 {
		delete(t.set, kindID)
	}
	return true
}

// Instance looks up a live instance by its instance_id, scanning every
// kind's set (see the type doc for why this is intentionally O(n)).
func (t *Instances) Instance(instanceID uint64) (Instance, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, group := range t.set {
		if inst, ok := group[instanceID]; ok {
			return inst, true
		}
	}
	return nil, false
}

// All returns a snapshot of every live instance across every kind, the
// view the queue-draining worker iterates each wake cycle.
func (t *Instances) All() []Instance {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Instance, 0, t.countLocked())
	for _, group := range t.set {
		for _, inst := range group {
			out = append(out, inst)
		}
	}
	return out
}

func (t *Instances) count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.countLocked()
}

// KindToInstanceID returns a snapshot of kind-id -> instance-id for
// every live instance, the shape PluginService.GetPluginInstances and
// the EventStream discovery-metadata path both return to clients.
// Duplicate instances of the same kind collapse to one entry, matching
// the map-typed wire response (spec.md §4.9).
func (t *Instances) KindToInstanceID() map[string]uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string]uint64, len(t.set))
	for kindID, group := range t.set {
		for id := range group {
			out[kindID] = id
		}
	}
	return out
}

func (t *Instances) countLocked() int {
	n := 0
	for _, group := range t.set {
		n += len(group)
	}
	return n
}
