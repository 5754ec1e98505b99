/*
Copyright 2024.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package v1alpha1

import (
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/intstr"
)

// CheckState is the lifecycle state of a Check.
type CheckState string

const (
	// CheckStatePending means the check has never run.
	CheckStatePending CheckState = "Pending"
	// CheckStateRunning means a check run is currently in flight.
	// Running is transient; it is never valid for longer than the
	// check's timeout (see crash recovery in the controller).
	CheckStateRunning CheckState = "Running"
	// CheckStateSuccess means the most recent run passed.
	CheckStateSuccess CheckState = "Success"
	// CheckStateFailing means the check failed but retry attempts remain.
	CheckStateFailing CheckState = "Failing"
	// CheckStateEscalated means the check exhausted its attempts and
	// escalation notifications have been fired.
	CheckStateEscalated CheckState = "Escalated"
)

const (
	// DefaultMaxAttempts applies when spec.max_attempts is unset.
	DefaultMaxAttempts = 3
	// TriggerAnnotation forces an immediate run when its value (an RFC3339
	// timestamp) is newer than status.last_check. Written by checkctl.
	TriggerAnnotation = "checks.mozalert.org/trigger"
)

// EscalationDescriptor selects an escalation type and its arguments.
// The set of types is extensible; "email" and "slack" are built in.
type EscalationDescriptor struct {
	// type names a registered escalation kind.
	// +kubebuilder:validation:MinLength=1
	Type string `json:"type"`

	// args are passed verbatim to the escalation implementation.
	// +optional
	// +kubebuilder:pruning:PreserveUnknownFields
	Args map[string]string `json:"args,omitempty"`
}

// CheckSpec defines the desired behaviour of a periodic check.
type CheckSpec struct {
	// check_interval is the cadence between successful runs. Accepts a
	// duration string ("90s", "5m") or an integer count of seconds.
	// +kubebuilder:validation:XIntOrString
	CheckInterval intstr.IntOrString `json:"check_interval"`

	// retry_interval is the cadence between retries while Failing.
	// Defaults to check_interval when unset.
	// +optional
	// +kubebuilder:validation:XIntOrString
	RetryInterval intstr.IntOrString `json:"retry_interval,omitempty"`

	// notification_interval is the re-probe cadence while Escalated.
	// Defaults to check_interval when unset.
	// +optional
	// +kubebuilder:validation:XIntOrString
	NotificationInterval intstr.IntOrString `json:"notification_interval,omitempty"`

	// max_attempts is the number of consecutive failures before escalation.
	// +optional
	// +kubebuilder:validation:Minimum=1
	MaxAttempts int `json:"max_attempts,omitempty"`

	// timeout bounds a single run. A run exceeding it is terminated and
	// counted as a failure. Defaults to the controller-wide default.
	// +optional
	// +kubebuilder:validation:XIntOrString
	Timeout intstr.IntOrString `json:"timeout,omitempty"`

	// image is the container image that executes the check script.
	// +kubebuilder:validation:MinLength=1
	Image string `json:"image"`

	// secret_ref names a Secret in the Check's namespace whose keys are
	// exposed to the running script under the secure binding namespace.
	// +optional
	SecretRef string `json:"secret_ref,omitempty"`

	// check_cm names a ConfigMap in the Check's namespace holding the
	// script body under the "check" key.
	// +optional
	CheckCM string `json:"check_cm,omitempty"`

	// check_url is an alternative to check_cm: the script body is fetched
	// from this URL at run time.
	// +optional
	CheckURL string `json:"check_url,omitempty"`

	// escalations lists notification actions fired when the check
	// escalates, in order.
	// +optional
	Escalations []EscalationDescriptor `json:"escalations,omitempty"`

	// args are extra invocation arguments passed to the check container.
	// +optional
	Args []string `json:"args,omitempty"`

	// references holds opaque key/value references surfaced to the script
	// environment (non-secret counterpart of secret_ref).
	// +optional
	References map[string]string `json:"references,omitempty"`

	// template optionally overrides the generated workload pod template.
	// When set, the executor injects the script and secret material into
	// its first container instead of synthesizing one.
	// +optional
	Template *corev1.PodTemplateSpec `json:"template,omitempty"`
}

// CheckStatus is the observed state of a Check. It is the single source
// of truth for the retry/escalation cycle and is only ever written
// through the status subresource.
type CheckStatus struct {
	// state is the lifecycle state, see CheckState.
	// +optional
	State CheckState `json:"state,omitempty"`

	// status is a free-text human summary of the most recent outcome.
	// +optional
	Status string `json:"status,omitempty"`

	// attempt counts consecutive failures, 0 <= attempt <= max_attempts.
	// +optional
	Attempt int `json:"attempt,omitempty"`

	// last_check is when the most recent run started.
	// +optional
	LastCheck *metav1.Time `json:"last_check,omitempty"`

	// next_check is when the next run is due. Always >= last_check.
	// +optional
	NextCheck *metav1.Time `json:"next_check,omitempty"`

	// logs holds the bounded captured output of the most recent run.
	// +optional
	Logs string `json:"logs,omitempty"`

	// telemetry holds structured metrics extracted from the run's output.
	// +optional
	Telemetry map[string]string `json:"telemetry,omitempty"`
}

// +kubebuilder:resource:scope=Namespaced,shortName=chk
// +kubebuilder:object:root=true
// +kubebuilder:subresource:status
// +kubebuilder:printcolumn:name="Status",type=string,JSONPath=".status.status",description="Most recent outcome"
// +kubebuilder:printcolumn:name="State",type=string,JSONPath=".status.state",description="Lifecycle state"
// +kubebuilder:printcolumn:name="Attempt",type=integer,JSONPath=".status.attempt",description="Consecutive failures"
// +kubebuilder:printcolumn:name="Max_Attempts",type=string,JSONPath=".spec.max_attempts",description="Failures before escalation"
// +kubebuilder:printcolumn:name="Last_Check",type=string,JSONPath=".status.last_check"
// +kubebuilder:printcolumn:name="Next_Check",type=string,JSONPath=".status.next_check"
// +kubebuilder:printcolumn:name="Age",type=date,JSONPath=".metadata.creationTimestamp"

// Check describes a periodic probe, its retry/escalation policy, and the
// image that executes it.
type Check struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	// +required
	Spec   CheckSpec   `json:"spec"`
	Status CheckStatus `json:"status,omitempty"`
}

// EffectiveMaxAttempts returns spec.max_attempts or the default.
func (c *Check) EffectiveMaxAttempts() int {
	if c.Spec.MaxAttempts > 0 {
		return c.Spec.MaxAttempts
	}
	return DefaultMaxAttempts
}

// +kubebuilder:object:root=true

// CheckList contains a list of Check.
type CheckList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []Check `json:"items"`
}

func init() {
	SchemeBuilder.Register(&Check{}, &CheckList{})
}
