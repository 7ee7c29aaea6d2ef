// Package specfile loads tool declarations from YAML.
//
// A tools file lists tools, each with static arguments and dynamic fields.
// Dynamic fields are checked by a chain of declarative rules, applied in
// this order: normalize, schema, allowed or suggested values, lookup, and
// finally checks.
//
//	tools:
//	  - name: book_flight
//	    description: Books a flight.
//	    static:
//	      passengers:
//	        required: true
//	        schema: {type: integer, minimum: 1}
//	    fields:
//	      departure:
//	        normalize: [trim, upper]
//	        lookup:
//	          query: SELECT DISTINCT departure FROM flights
//	          exhaustive: true
//	      arrival:
//	        requires: [departure]
//	        normalize: [trim, upper]
//	        lookup:
//	          query: SELECT arrival FROM flights WHERE departure = ?
//	          args: [departure]
//	          exhaustive: true
//
// Fields are required unless declared with required: false. A Watcher
// reloads the file when it changes.
package specfile
