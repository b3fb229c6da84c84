/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package events

import (
	"fmt"
	"math/bits"
	"strings"
	"sync"
)

// Kind is a set of event kinds. A concrete kind has exactly one bit set;
// wider sets act as supertypes that listeners may subscribe to.
type Kind uint64

// Concrete lifecycle kinds published by a publishing datastore.
const (
	BeforeInsert Kind = 1 << iota
	AfterInsert
	BeforeUpdate
	AfterUpdate
	BeforeDelete
	AfterDelete

	builtinKinds = iota
)

// Supertype groupings.
const (
	Insert = BeforeInsert | AfterInsert
	Update = BeforeUpdate | AfterUpdate
	Delete = BeforeDelete | AfterDelete
	Before = BeforeInsert | BeforeUpdate | BeforeDelete
	After  = AfterInsert | AfterUpdate | AfterDelete
	// Any matches every concrete kind, including ones registered later.
	Any = ^Kind(0)
)

var (
	kindsMu  sync.RWMutex
	nextBit  = builtinKinds
	kindName = map[Kind]string{
		BeforeInsert: "BeforeInsert",
		AfterInsert:  "AfterInsert",
		BeforeUpdate: "BeforeUpdate",
		AfterUpdate:  "AfterUpdate",
		BeforeDelete: "BeforeDelete",
		AfterDelete:  "AfterDelete",
		Insert:       "Insert",
		Update:       "Update",
		Delete:       "Delete",
		Before:       "Before",
		After:        "After",
		Any:          "Any",
	}
)

// RegisterKind allocates a new concrete kind for events defined outside this
// package. Names must be unique.
func RegisterKind(name string) (Kind, error) {
	if name == "" {
		return 0, fmt.Errorf("event kind name must not be empty")
	}

	kindsMu.Lock()
	defer kindsMu.Unlock()

	for _, existing := range kindName {
		if existing == name {
			return 0, fmt.Errorf("event kind %q already registered", name)
		}
	}
	if nextBit >= 64 {
		return 0, fmt.Errorf("no event kinds left to register %q", name)
	}

	k := Kind(1) << nextBit
	nextBit++
	kindName[k] = name
	return k, nil
}

// Contains reports whether an event of kind other is an instance of k, that
// is, whether every bit of other is in k. The empty kind is contained nowhere.
func (k Kind) Contains(other Kind) bool {
	return other != 0 && k&other == other
}

// IsConcrete reports whether k is a single kind rather than a grouping.
func (k Kind) IsConcrete() bool {
	return bits.OnesCount64(uint64(k)) == 1
}

func (k Kind) String() string {
	if k == 0 {
		return "None"
	}

	kindsMu.RLock()
	defer kindsMu.RUnlock()

	if name, ok := kindName[k]; ok {
		return name
	}

	var parts []string
	for rest := uint64(k); rest != 0; rest &= rest - 1 {
		bit := Kind(1) << bits.TrailingZeros64(rest)
		if name, ok := kindName[bit]; ok {
			parts = append(parts, name)
		} else {
			parts = append(parts, fmt.Sprintf("Kind(%#x)", uint64(bit)))
		}
	}
	return strings.Join(parts, "|")
}
