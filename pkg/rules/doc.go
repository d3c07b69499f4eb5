// Package rules defines the audience rule tree shared by the CRM client,
// the terminal editor and the local API stub.
//
// A rule tree is a Group: a combinator (and/or) over an ordered list of
// children, each either a Rule (field, operator, value) or a nested Group.
// The JSON shape matches the react-querybuilder format the CRM API speaks:
//
//	{"combinator":"and","rules":[{"field":"total_spend","operator":">","value":500}]}
//
// The Golden Rule: pkg/rules imports ONLY stdlib.
package rules
