package audit

import (
	"strings"

	apiv1 "github.com/TobiasDeBruijn/invoicex/api/v1"
)

// ActionResource holds action and resource derived from a gRPC full method name.
type ActionResource struct {
	Action   string
	Resource string
}

// Membership changes are recorded against the affected user rather than the membership service.
var overrides = map[string]ActionResource{
	apiv1.FullMethod(apiv1.MembershipServiceName, "AddUser"):    {Action: "user_added", Resource: "user"},
	apiv1.FullMethod(apiv1.MembershipServiceName, "RemoveUser"): {Action: "user_removed", Resource: "user"},
	apiv1.FullMethod(apiv1.MembershipServiceName, "SetScopes"):  {Action: "scopes_changed", Resource: "user"},
}

// verbs maps a method-name prefix to its audit action, first match wins.
var verbs = []struct{ prefix, action string }{
	{"Get", "get"},
	{"List", "list"},
	{"Create", "create"},
	{"Update", "update"},
	{"Delete", "delete"},
	{"Add", "add"},
	{"Remove", "remove"},
	{"Set", "set"},
}

// ParseFullMethod returns action and resource for a gRPC full method such as
// /invoicex.v1.ProductService/GetProduct (action "get", resource "product").
func ParseFullMethod(fullMethod string) ActionResource {
	if ar, ok := overrides[fullMethod]; ok {
		return ar
	}
	service, method, ok := strings.Cut(strings.TrimPrefix(fullMethod, "/"), "/")
	if !ok || method == "" {
		return ActionResource{Action: "unknown", Resource: "unknown"}
	}
	resource := "unknown"
	if dot := strings.LastIndex(service, "."); dot >= 0 {
		resource = serviceToResource(service[dot+1:])
	}
	return ActionResource{Action: methodToAction(method), Resource: resource}
}

func serviceToResource(serviceName string) string {
	s := strings.TrimSuffix(serviceName, "Service")
	if s == "" {
		return "unknown"
	}
	return strings.ToLower(s[:1]) + s[1:]
}

func methodToAction(method string) string {
	for _, v := range verbs {
		if strings.HasPrefix(method, v.prefix) && method != v.prefix {
			return v.action
		}
	}
	return strings.ToLower(method)
}
