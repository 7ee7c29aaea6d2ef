// Package fieldspec describes the dynamic fields of a tool and finalizes them
// into an immutable, cycle-checked Spec.
//
// Each field declares the fields it requires (hard prerequisites), the fields
// that merely influence it (soft hints that never block evaluation), and a
// validation function. New checks the requires graph once; a cycle is a
// configuration error reported before any call is validated:
//
//	spec, err := fieldspec.New(map[string]fieldspec.FieldSpec{
//	    "departure": {Validate: validateDeparture},
//	    "arrival":   {Requires: []string{"departure"}, Validate: validateArrival},
//	})
//	if err != nil {
//	    var cycleErr *fieldspec.CycleError
//	    if errors.As(err, &cycleErr) {
//	        log.Fatal(cycleErr) // "cyclic field requirements: a → b → a"
//	    }
//	}
//
// The Builder offers the same construction with a fluent API.
package fieldspec
