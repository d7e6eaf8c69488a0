// Copyright 2021 Andrew Werner.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

package avltable_test

import (
	"fmt"
	"strings"

	"github.com/ajwerner/avltable"
)

func ExampleTable() {
	t := avltable.New(strings.Compare)
	for _, s := range []string{"foo", "bar", "baz"} {
		if _, err := t.Upsert(s); err != nil {
			panic(err)
		}
	}
	fmt.Println(t.Get("foo"))
	fmt.Println(t.Get("qux"))
	it := t.MakeIter()
	for it.First(); it.Valid(); it.Next() {
		fmt.Println(it.Cur())
	}
	fmt.Println(t.Item(t.Nth(1)))

	// Output:
	// foo true
	//  false
	// bar
	// baz
	// foo
	// baz
}

func ExampleTable_Alloc() {
	t := avltable.NewOrdered[int]()

	// Nodes are allocated before they are linked, so the time spent
	// linking them involves no allocation.
	nodes := []avltable.Node{t.Alloc(3), t.Alloc(1), t.Alloc(2)}
	for _, n := range nodes {
		if _, err := t.Insert(n); err != nil {
			panic(err)
		}
	}
	fmt.Println(t)

	t.Remove(nodes[0])
	t.Free(nodes[0])
	fmt.Println(t, t.Len())

	// Output:
	// (1)2(3)
	// (1)2 2
}
