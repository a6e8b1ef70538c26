package hostverify

// Reset exposes reset to the external test package.
var Reset = reset
