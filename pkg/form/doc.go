// Package form holds the registration form controller: the current field
// values, the field-keyed error map, the zipcode lookup that fills address and
// city, and the submission state machine that talks to the registration
// endpoint.
//
// Front ends (the terminal runner, batch mode, tests) drive a Controller by
// setting values and calling ChangeZipcode and Submit; results come back as
// errors, FieldErrors and Notifications.
package form
