// Package model provides the in-memory representation of a compiled domain model
// and the loader that builds it from the model assembler's output.
//
// A Graph holds the type descriptors discovered for one module (aggregates,
// command handlers, process managers, projections, reactors and subscribers)
// together with the module's message catalog. Graphs are built once, by Load or
// NewGraph, and expose no mutating methods afterwards.
//
// Compiled output is a directory containing a manifest (model.yaml, model.yml or
// model.json) and optional included fragments:
//
//	module: orders
//	bounded_context: Orders
//	messages:
//	  commands: [CreateOrder]
//	  events: [OrderCreated, {name: PaymentReceived, context: Billing}]
//	types:
//	  aggregates:
//	    - name: acme.orders.Order
//	      handlers:
//	        - {method: handle, kind: command, message: CreateOrder, produces: [OrderCreated]}
//	        - {method: on, kind: apply, message: OrderCreated, access: private}
//	include: [fragments/*.yaml]
//
// A type listed under several sections (or files) is represented once with all of
// its capabilities set.
package model
