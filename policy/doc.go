// Package policy provides optional declarative rules that can be applied on
// top of a running drain – for example switching the admission scan from the
// default first-fit scan-and-continue to strict submission order.
package policy
