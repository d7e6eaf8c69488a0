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

package interval_test

import (
	"fmt"

	"github.com/ajwerner/avltable/interval"
)

func Example() {
	t := interval.New[uint64, string]()
	for _, r := range []struct {
		low, high uint64
		name      string
	}{
		{0, 99, "text"}, {200, 299, "heap"}, {1000, 1099, "stack"},
	} {
		n, err := t.Alloc(interval.Range[uint64]{Low: r.low, High: r.high}, r.name)
		if err != nil {
			panic(err)
		}
		if err := t.Insert(n); err != nil {
			panic(err)
		}
	}
	fmt.Println(t.Value(t.Locate(250)))

	it := t.MakeIter()
	for it.FirstOverlap(interval.Range[uint64]{Low: 50, High: 250}); it.Valid(); it.NextOverlap() {
		fmt.Println(it.Range(), it.Value())
	}

	start, _, err := t.FindFreeRange(50, 16, interval.Range[uint64]{Low: 0, High: 2047}, interval.LowestFit)
	fmt.Println(start, err)
	start, _, err = t.FindFreeRange(50, 16, interval.Range[uint64]{Low: 0, High: 2047}, interval.HighestFit)
	fmt.Println(start, err)

	// Output:
	// heap
	// [0,99] text
	// [200,299] heap
	// 112 <nil>
	// 1984 <nil>
}
