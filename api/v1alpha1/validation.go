package v1alpha1

import (
	"strings"

	"k8s.io/apimachinery/pkg/util/validation/field"
)

// ValidationResult aggregates structural validation errors for a Check.
type ValidationResult struct {
	Errors field.ErrorList
}

// IsValid reports whether validation found no errors.
func (r ValidationResult) IsValid() bool { return len(r.Errors) == 0 }

// ErrorMessage flattens the error list into one human-readable string.
func (r ValidationResult) ErrorMessage() string {
	msgs := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "; ")
}

// ValidateCheck performs structural validation shared between the
// reconciler and any admission path. The API server enforces the CRD
// schema; this catches cross-field problems the schema cannot express.
func ValidateCheck(c *Check) ValidationResult {
	if c == nil {
		return ValidationResult{}
	}

	specPath := field.NewPath("spec")
	var allErrs field.ErrorList

	if c.Spec.Image == "" {
		allErrs = append(allErrs, field.Required(specPath.Child("image"), "image is required"))
	}
	if _, err := ParseInterval(c.Spec.CheckInterval); err != nil {
		allErrs = append(allErrs, field.Invalid(specPath.Child("check_interval"), c.Spec.CheckInterval.String(), err.Error()))
	}
	if _, err := ParseInterval(c.Spec.RetryInterval); err != nil {
		allErrs = append(allErrs, field.Invalid(specPath.Child("retry_interval"), c.Spec.RetryInterval.String(), err.Error()))
	}
	if _, err := ParseInterval(c.Spec.NotificationInterval); err != nil {
		allErrs = append(allErrs, field.Invalid(specPath.Child("notification_interval"), c.Spec.NotificationInterval.String(), err.Error()))
	}
	if _, err := ParseInterval(c.Spec.Timeout); err != nil {
		allErrs = append(allErrs, field.Invalid(specPath.Child("timeout"), c.Spec.Timeout.String(), err.Error()))
	}
	if c.Spec.MaxAttempts < 0 {
		allErrs = append(allErrs, field.Invalid(specPath.Child("max_attempts"), c.Spec.MaxAttempts, "must be positive"))
	}

	if c.Spec.CheckCM == "" && c.Spec.CheckURL == "" && c.Spec.Template == nil {
		allErrs = append(allErrs, field.Required(specPath.Child("check_cm"),
			"one of check_cm, check_url or template must provide the check script"))
	}
	if c.Spec.CheckCM != "" && c.Spec.CheckURL != "" {
		allErrs = append(allErrs, field.Invalid(specPath.Child("check_url"), c.Spec.CheckURL,
			"check_cm and check_url are mutually exclusive"))
	}

	escPath := specPath.Child("escalations")
	for i, esc := range c.Spec.Escalations {
		if esc.Type == "" {
			allErrs = append(allErrs, field.Required(escPath.Index(i).Child("type"), "escalation type is required"))
		}
	}

	return ValidationResult{Errors: allErrs}
}
