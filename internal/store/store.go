// Package store holds the customer records of one run in load order.
package store

import "github.com/jmehdipour/balance-batch/internal/model"

// Store owns the customers for the lifetime of a run. Not safe for concurrent use.
type Store struct {
	customers []model.Customer
	index     map[string]int // id -> first position
}

// New copies customers into a store, keeping their order.
func New(customers []model.Customer) *Store {
	s := &Store{
		customers: make([]model.Customer, len(customers)),
		index:     make(map[string]int, len(customers)),
	}
	copy(s.customers, customers)
	for i, c := range s.customers {
		if _, dup := s.index[c.ID]; !dup {
			s.index[c.ID] = i
		}
	}
	return s
}

// Find returns the first customer loaded with id. The pointer stays valid
// for the life of the store and writes through to it.
func (s *Store) Find(id string) (*model.Customer, bool) {
	i, ok := s.index[id]
	if !ok {
		return nil, false
	}
	return &s.customers[i], true
}

// All returns a copy of the customers in stored order.
func (s *Store) All() []model.Customer {
	out := make([]model.Customer, len(s.customers))
	copy(out, s.customers)
	return out
}

func (s *Store) Len() int { return len(s.customers) }
